package server

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/", cfg.Path)
	assert.Equal(t, 1024, cfg.ReadBufferSize)
	assert.Equal(t, 1024, cfg.WriteBufferSize)
	assert.Equal(t, 10*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"relative path", Config{Path: "ws"}},
		{"negative buffer", Config{Path: "/", ReadBufferSize: -1}},
		{"negative read limit", Config{Path: "/", ReadLimit: -1}},
		{"negative timeout", Config{Path: "/", ShutdownTimeout: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestSameOrigin(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	assert.True(t, sameOrigin(r), "no Origin header")

	r.Header.Set("Origin", "http://EXAMPLE.com")
	assert.True(t, sameOrigin(r))

	r.Header.Set("Origin", "http://other.com")
	assert.False(t, sameOrigin(r))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "connect", EventConnect.String())
	assert.Equal(t, "text", EventText.String())
	assert.Equal(t, "binary", EventBinary.String())
	assert.Equal(t, "close", EventClose.String())
	assert.Equal(t, "unknown", EventKind(42).String())
}
