// config.go: environment-driven server configuration.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

// Package config loads and validates the EncryptX server configuration from
// the environment.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime settings of the HTTP adapter. All values come
// from the environment; a .env file loaded by the caller feeds the same
// variables in development.
type Config struct {
	// Port the HTTP server listens on.
	Port int `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`

	// AllowedOrigins is the comma-separated CORS allowlist.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGIN" default:"http://localhost:3000" validate:"min=1,dive,required"`

	// MaxBodyBytes caps the request body size for /encrypt and /decrypt.
	MaxBodyBytes int64 `envconfig:"MAX_BODY_BYTES" default:"1073741824" validate:"min=1"`

	// KDFWorkers bounds concurrent Argon2id derivations across requests.
	KDFWorkers int `envconfig:"KDF_WORKERS" default:"4" validate:"min=1"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration against the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
