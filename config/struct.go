package config

import "time"

type Config struct {
	// General configuration
	Env string `yaml:"env" mapstructure:"env" validate:"required"`
	Log Log    `yaml:"log" mapstructure:"log" validate:"required"`

	// Service credentials and endpoint
	Client Client `yaml:"client" mapstructure:"client" validate:"required"`
}

type Client struct {
	// Origin is the bucket base URL, e.g. https://bucket.medoro.dev
	Origin string `yaml:"origin" mapstructure:"origin" validate:"required,url"`
	KeyID  string `yaml:"keyId" mapstructure:"keyId" validate:"required"`
	// PrivateKey is the base64 of an ed25519 seed or private key.
	PrivateKey string `yaml:"privateKey" mapstructure:"privateKey" validate:"required,base64"`
	// DefaultExpiry is the signed-URL lifetime in seconds when the
	// caller does not pass one.
	DefaultExpiry int64         `yaml:"defaultExpiry" mapstructure:"defaultExpiry" validate:"omitempty,gte=10,lte=604800"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

type Log struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json text"`
	AddSource bool   `yaml:"addSource" mapstructure:"addSource"`
}
