// Package config provides type-safe environment variable loading with
// caching. Each configuration type is loaded once and cached for subsequent
// calls.
//
// The package automatically loads a .env file on first use (when present)
// and uses the caarlos0/env library for parsing environment variables into
// struct fields.
//
// Basic usage:
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure, useful at startup:
//	config.MustLoad(&cfg)
//
// Each configuration type is loaded only once per process; later Load calls
// for the same type return the cached value. Different types are cached
// independently.
package config
