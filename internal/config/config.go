// Copyright (c) 2025 Vladimer Grigalashvili
// SPDX-License-Identifier: MIT

// Package config reads the logging mode flags from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrEnvVariablesNotValid = errors.New("environment variables not valid")
)

// Config is the snapshot of mode flags taken once at startup.
type Config struct {
	IsProd bool `env:"IS_PROD"`
	IsTest bool `env:"IS_TEST"`

	// Kept raw: only the literal string "true" enables the console in production.
	EnableConsoleLogsInProd string `env:"ENABLE_CONSOLE_LOGS_IN_PROD"`
}

// ConsoleInProd reports whether console output was explicitly enabled for production.
func (c Config) ConsoleInProd() bool {
	return c.EnableConsoleLogsInProd == "true"
}

// Load reads .env (if present) and then parses the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, err.Error())
	}
	return &cfg, nil
}

// LoadFrom parses the given environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, err.Error())
	}
	return &cfg, nil
}
