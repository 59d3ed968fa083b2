package config

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// CardConfiguration defines the card issuance settings
type CardConfiguration struct {
	// IssuanceThresholdEUR is the fiat-equivalent XOR balance required for
	// free card issuance.
	IssuanceThresholdEUR decimal.Decimal

	// CaptureLanguage is the default language passed to the document
	// capture provider.
	CaptureLanguage string

	// BalancePollInterval controls how often the balance watcher refreshes
	// the XOR balance and price.
	BalancePollInterval time.Duration
}

var (
	cardDefaultsOnce sync.Once
	cardConfigOnce   sync.Once
	cardConfig       *CardConfiguration
)

func initCardDefaults() {
	cardDefaultsOnce.Do(func() {
		viper.SetDefault("CARD_ISSUANCE_THRESHOLD_EUR", "100")
		viper.SetDefault("CARD_CAPTURE_LANGUAGE", "en")
		viper.SetDefault("CARD_BALANCE_POLL_INTERVAL", 30) // seconds
	})
}

// CardConfig returns the card issuance configurations.
// The config is initialized once and cached to avoid concurrent map writes.
func CardConfig() *CardConfiguration {
	initCardDefaults()

	cardConfigOnce.Do(func() {
		threshold, err := decimal.NewFromString(viper.GetString("CARD_ISSUANCE_THRESHOLD_EUR"))
		if err != nil {
			threshold = decimal.NewFromInt(100)
		}
		cardConfig = &CardConfiguration{
			IssuanceThresholdEUR: threshold,
			CaptureLanguage:      viper.GetString("CARD_CAPTURE_LANGUAGE"),
			BalancePollInterval:  time.Duration(viper.GetInt("CARD_BALANCE_POLL_INTERVAL")) * time.Second,
		}
	})
	return cardConfig
}
