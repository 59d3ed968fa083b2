package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Configuration aggregates every configurable concern of the SDK.
type Configuration struct {
	Client ClientConfiguration
	Auth   AuthConfiguration
	Card   CardConfiguration
	Redis  RedisConfiguration
}

// SetupConfig loads configuration from the environment and an optional env
// file. Host applications call this once before constructing SDK services;
// accessors fall back to defaults when it was never called.
func SetupConfig() error {
	viper.AddConfigPath("../../../..")
	viper.AddConfigPath("../../..")
	viper.AddConfigPath("../..")
	viper.AddConfigPath("..")
	viper.AddConfigPath(".")

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	viper.SetConfigName(envFilePath)
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file, %s", err)
			return err
		}
	}

	var configuration *Configuration
	if err := viper.Unmarshal(&configuration); err != nil {
		fmt.Printf("error to decode, %v", err)
		return err
	}

	return nil
}
