package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/medoro/medoro-go/pkg/validator"
)

var (
	once sync.Once
	cfg  *Config
)

// Load reads the configuration from config.yaml (working directory or
// ./config), overlays MEDORO_* environment variables and validates the
// result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults and environment only.
	}

	v.SetEnvPrefix("MEDORO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Sensitive values always win from the environment.
	if key := os.Getenv("MEDORO_PRIVATE_KEY"); key != "" {
		c.Client.PrivateKey = key
	}

	if err := validator.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addSource", false)
	v.SetDefault("client.defaultExpiry", 60)
	v.SetDefault("client.timeout", "30s")
}

// GetConfig loads the configuration once and panics on failure; use
// Load directly when the caller wants the error.
func GetConfig() *Config {
	once.Do(func() {
		var err error
		cfg, err = Load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return cfg
}
