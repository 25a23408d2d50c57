package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config discovery at an empty temp tree
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("CORETERRA_API_URL", "")
	t.Setenv("VITE_API_URL", "")
	os.Unsetenv("CORETERRA_API_URL")
	os.Unsetenv("VITE_API_URL")
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestFileAndEnvironment(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://api.example.com\nlog_level: debug\ntimeout: 5s\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	t.Setenv("CORETERRA_API_URL", "http://env.example.com")
	t.Setenv("CORETERRA_LOG_LEVEL", "warn")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com", cfg.APIURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestViteVariableIsHonoured(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_API_URL", "http://vite.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://vite.example.com", cfg.APIURL)
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CORETERRA_METRICS_ADDR=127.0.0.1:9464\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CORETERRA_METRICS_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
}

func TestDefaultPathFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "coreterra"), 0755))
	require.NoError(t, os.WriteFile(DefaultPath(), []byte("data_dir: /srv/coreterra\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/coreterra", cfg.DataDir)
}

func TestExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"http", Config{APIURL: "http://localhost:8000"}, true},
		{"https", Config{APIURL: "https://api.example.com"}, true},
		{"no scheme", Config{APIURL: "localhost:8000"}, false},
		{"ftp", Config{APIURL: "ftp://example.com"}, false},
		{"negative timeout", Config{APIURL: "http://x", Timeout: -time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestYAML(t *testing.T) {
	out, err := DefaultConfig().YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "api_url: http://localhost:8000")
}
