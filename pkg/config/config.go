// Package config loads typed configuration structs from environment
// variables. A .env file, when present, is merged into the process
// environment once per process; parsed structs are cached by type so
// repeated loads of the same config are cheap and consistent.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	loadEnvOnce sync.Once

	cacheMu sync.RWMutex
	cache   = make(map[string]any)
)

// Load parses environment variables into the given struct pointer.
// The result is cached per concrete type; subsequent calls for the same
// type return the cached value without re-reading the environment.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	loadEnvOnce.Do(func() {
		// Missing .env is fine; real deployments use the process env.
		_ = godotenv.Load()
	})

	key := fmt.Sprintf("%T", cfg)

	cacheMu.RLock()
	cached, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		*cfg = *(cached.(*T))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	cache[key] = cfg
	cacheMu.Unlock()

	return nil
}

// MustLoad is like Load but panics on error. Intended for process startup
// where a missing required variable should abort immediately.
func MustLoad[T any](cfg *T) {
	if err := Load[T](cfg); err != nil {
		panic(err)
	}
}
