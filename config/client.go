package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ClientConfiguration defines the backend API client settings
type ClientConfiguration struct {
	APIBaseURL     string
	AuthBaseURL    string
	RequestTimeout time.Duration
	ClientVersion  string
	Environment    string
	SentryDSN      string
}

var (
	clientDefaultsOnce sync.Once
	clientConfigOnce   sync.Once
	clientConfig       *ClientConfiguration
)

func initClientDefaults() {
	clientDefaultsOnce.Do(func() {
		viper.SetDefault("API_BASE_URL", "https://api.cardflow.paycrest.io")
		viper.SetDefault("AUTH_BASE_URL", "https://auth.cardflow.paycrest.io")
		viper.SetDefault("REQUEST_TIMEOUT", 30) // seconds
		viper.SetDefault("CLIENT_VERSION", "1.0.0")
		viper.SetDefault("ENVIRONMENT", "local")
	})
}

// ClientConfig returns the backend API client configurations.
// The config is initialized once and cached to avoid concurrent map writes.
func ClientConfig() *ClientConfiguration {
	initClientDefaults()

	clientConfigOnce.Do(func() {
		clientConfig = &ClientConfiguration{
			APIBaseURL:     viper.GetString("API_BASE_URL"),
			AuthBaseURL:    viper.GetString("AUTH_BASE_URL"),
			RequestTimeout: time.Duration(viper.GetInt("REQUEST_TIMEOUT")) * time.Second,
			ClientVersion:  viper.GetString("CLIENT_VERSION"),
			Environment:    viper.GetString("ENVIRONMENT"),
			SentryDSN:      viper.GetString("SENTRY_DSN"),
		}
	})
	return clientConfig
}
