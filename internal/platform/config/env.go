// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag of a parsed struct.
const EnvPrefix = "STOREFRONT_"

// ParseEnv loads configuration from STOREFRONT_ prefixed environment
// variables into target.
func ParseEnv(target any) error {
	return parse(target, env.Options{Prefix: EnvPrefix})
}

// ParseEnvMap loads configuration from environ instead of the process
// environment. Keys must carry the STOREFRONT_ prefix.
func ParseEnvMap(target any, environ map[string]string) error {
	return parse(target, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func parse(target any, opts env.Options) error {
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
