package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, AuthModeRemote, cfg.Auth.Mode)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)
	assert.Equal(t, 3, cfg.Order.PersistMaxAttempts)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret-key"))
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CART_SERVICE_URL", "http://cart:8080/api/carts/")
	t.Setenv("CART_TIMEOUT", "750ms")
	t.Setenv("AUTH_MODE", "LOCAL")
	t.Setenv("AUTH_JWT_SECRET", secret)
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://cart:8080/api/carts", cfg.Cart.ServiceURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Cart.Timeout)
	assert.Equal(t, AuthModeLocal, cfg.Auth.Mode)
	assert.Equal(t, []byte("super-secret-key"), cfg.Auth.JWTSecret)
	assert.Equal(t, uint32(2), cfg.Breaker.FailureThreshold)
}

func TestLoad_YAMLFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "SERVER_PORT: 7000\nDB_NAME: from_file\nLOG_LEVEL: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "from_file", cfg.Database.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"CART_TIMEOUT": "soon"}},
		{"unknown auth mode", map[string]string{"AUTH_MODE": "ldap"}},
		{"local without secret", map[string]string{"AUTH_MODE": "local"}},
		{"secret not base64", map[string]string{"AUTH_JWT_SECRET": "%%%"}},
		{"zero threshold", map[string]string{"BREAKER_FAILURE_THRESHOLD": "0"}},
		{"zero attempts", map[string]string{"ORDER_PERSIST_MAX_ATTEMPTS": "0"}},
		{"zero request timeout", map[string]string{"ORDER_REQUEST_TIMEOUT": "0"}},
		{"negative request timeout", map[string]string{"ORDER_REQUEST_TIMEOUT": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("")
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
