package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

// AuthConfiguration defines the token lifecycle settings
type AuthConfiguration struct {
	ClientID string

	// RefreshLeeway is subtracted from the stored expiry when deciding
	// whether an access token is still usable, so a token never expires
	// mid-request.
	RefreshLeeway time.Duration

	TokenEndpoint     string
	AuthorizeEndpoint string
}

var (
	authDefaultsOnce sync.Once
	authConfigOnce   sync.Once
	authConfig       *AuthConfiguration
)

func initAuthDefaults() {
	authDefaultsOnce.Do(func() {
		viper.SetDefault("AUTH_CLIENT_ID", "cardflow-sdk")
		viper.SetDefault("AUTH_REFRESH_LEEWAY", 30) // seconds
		viper.SetDefault("AUTH_TOKEN_ENDPOINT", "/v1/oauth/token")
		viper.SetDefault("AUTH_AUTHORIZE_ENDPOINT", "/v1/oauth/authorize")
	})
}

// AuthConfig returns the token lifecycle configurations.
// The config is initialized once and cached to avoid concurrent map writes.
func AuthConfig() *AuthConfiguration {
	initAuthDefaults()

	authConfigOnce.Do(func() {
		authConfig = &AuthConfiguration{
			ClientID:          viper.GetString("AUTH_CLIENT_ID"),
			RefreshLeeway:     time.Duration(viper.GetInt("AUTH_REFRESH_LEEWAY")) * time.Second,
			TokenEndpoint:     viper.GetString("AUTH_TOKEN_ENDPOINT"),
			AuthorizeEndpoint: viper.GetString("AUTH_AUTHORIZE_ENDPOINT"),
		}
	})
	return authConfig
}
