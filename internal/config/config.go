// Package config loads configuration structs from the environment.
//
// Variables are read from the process environment after loading any .env
// files that exist. Values already set in the environment win over the
// files. Struct fields are described with caarlos0/env tags:
//
//	type Config struct {
//		Addr string `env:"WSMUX_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is loaded when Load is called without explicit files.
const DefaultEnvFile = ".env"

// Load loads the given env files (DefaultEnvFile when none are given),
// skipping those that do not exist, and parses the environment into cfg.
func Load(cfg any, envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// MustLoad is like Load but panics on failure. Meant for program startup.
func MustLoad(cfg any, envFiles ...string) {
	if err := Load(cfg, envFiles...); err != nil {
		panic(err)
	}
}
