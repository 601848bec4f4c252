package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	DBPath         string        `mapstructure:"db_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PistonURL      string        `mapstructure:"piston_url"`
	ExecuteTimeout time.Duration `mapstructure:"execute_timeout"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	CORSAllow      []string      `mapstructure:"cors_allow"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	v.SetConfigFile(fmt.Sprintf("config/config.%s.yaml", env))
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "./data/pairpad.db")
	v.SetDefault("read_limit", 1024*1024)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("piston_url", "https://emkc.org/api/v2/piston/execute")
	v.SetDefault("execute_timeout", "30s")
	v.SetDefault("redis_addr", "")
	v.SetDefault("cors_allow", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetEnvPrefix("pairpad")
	v.AutomaticEnv()

	// Config file is optional; env vars and defaults cover everything.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
