package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config contains the websocket server configuration. Field tags are read
// by caarlos0/env, usually under a WSMUX_ prefix.
type Config struct {
	Addr             string        `env:"ADDR" envDefault:":8080"`
	Path             string        `env:"PATH" envDefault:"/"`
	ReadBufferSize   int           `env:"READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize  int           `env:"WRITE_BUFFER_SIZE" envDefault:"1024"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// ReadLimit is the maximum message size in bytes. Zero means no limit.
	ReadLimit int64 `env:"READ_LIMIT" envDefault:"0"`

	// AllowedOrigins lists the Origin headers accepted during the handshake.
	// Empty keeps the same-origin check, "*" accepts any origin.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Path == "" {
		c.Path = "/"
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 1024
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = 1024
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("server.path must start with / (got: %q)", c.Path)
	}
	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return fmt.Errorf("server buffer sizes must not be negative (got: %d/%d)", c.ReadBufferSize, c.WriteBufferSize)
	}
	if c.ReadLimit < 0 {
		return fmt.Errorf("server.read_limit must not be negative (got: %d)", c.ReadLimit)
	}
	if c.HandshakeTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	return nil
}

func (c *Config) allowAnyOrigin() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// sameOrigin accepts requests without an Origin header and those whose
// Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
