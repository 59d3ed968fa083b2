package config

import (
	"sync"

	"github.com/spf13/viper"
)

// RedisConfiguration defines the optional redis-backed persistence settings
type RedisConfiguration struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

var (
	redisDefaultsOnce sync.Once
	redisConfigOnce   sync.Once
	redisConfig       *RedisConfiguration
)

func initRedisDefaults() {
	redisDefaultsOnce.Do(func() {
		viper.SetDefault("REDIS_ENABLED", false)
		viper.SetDefault("REDIS_ADDR", "localhost:6379")
		viper.SetDefault("REDIS_DB", 0)
	})
}

// RedisConfig returns the redis persistence configurations.
func RedisConfig() *RedisConfiguration {
	initRedisDefaults()

	redisConfigOnce.Do(func() {
		redisConfig = &RedisConfiguration{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		}
	})
	return redisConfig
}
