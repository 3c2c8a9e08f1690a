package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prestalab/portal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prestalab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GATEWAY_URL", "http://gateway:8000/route")
	t.Setenv("SESSION_KEY", testKey)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("ADMIN_EMAILS", "")
	t.Setenv("CSRF_KEY", "")
	t.Setenv("SECURE_COOKIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "regist", cfg.Gateway.Services.Auth)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, 6, cfg.HydrateConcurrency)
	assert.Len(t, cfg.Sedes, 3)
	assert.Empty(t, cfg.ConfigPath)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server_port: "9000"
gateway:
  url: http://from-file
  timeout: 5s
  services:
    waitlist: lista-v2
admin_emails: [jefa@lab.cl]
sedes:
  - id: "10"
    nombre: Viña
page_size: 12
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GATEWAY_URL", "http://from-env")
	t.Setenv("SESSION_KEY", testKey)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("ADMIN_EMAILS", " Otro@Lab.cl ,")
	t.Setenv("CSRF_KEY", "")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "http://from-env", cfg.Gateway.URL)
	assert.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "lista-v2", cfg.Gateway.Services.Waitlist)
	assert.Equal(t, "prart", cfg.Gateway.Services.Catalog)
	assert.Equal(t, []string{"jefa@lab.cl", "otro@lab.cl"}, cfg.AdminEmails)
	assert.Equal(t, []model.Sede{{ID: "10", Nombre: "Viña"}}, cfg.Sedes)
	assert.Equal(t, 12, cfg.PageSize)
	assert.True(t, cfg.Session.SecureCookies)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing gateway", map[string]string{"GATEWAY_URL": "", "SESSION_KEY": testKey}, "GATEWAY_URL"},
		{"short session key", map[string]string{"GATEWAY_URL": "http://gw", "SESSION_KEY": "short"}, "SESSION_KEY"},
		{"bad csrf key", map[string]string{"GATEWAY_URL": "http://gw", "SESSION_KEY": testKey, "CSRF_KEY": "abc"}, "CSRF_KEY"},
		{"bad timeout", map[string]string{"GATEWAY_URL": "http://gw", "SESSION_KEY": testKey, "GATEWAY_TIMEOUT": "soon"}, "GATEWAY_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			for _, k := range []string{"GATEWAY_URL", "SESSION_KEY", "CSRF_KEY", "GATEWAY_TIMEOUT", "SECURE_COOKIES", "ADMIN_EMAILS", "SERVER_PORT"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeFile(t, "gateway: [not, a, map]"))
	assert.Error(t, err)
}
