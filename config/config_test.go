package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/grpcstream/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "grpcurl", cfg.GrpcurlPath)
	assert.True(t, cfg.IsPlaintext())
	assert.Equal(t, session.CollisionReplace, cfg.OnCollision)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, 30*time.Second, cfg.InvokeTimeout.Std())
	require.NoError(t, cfg.Validate())
}

func TestWithDefaults_KeepsSetFields(t *testing.T) {
	off := false
	cfg := Config{GrpcurlPath: "/opt/grpcurl", Plaintext: &off, EventBuffer: 8}.WithDefaults()
	assert.Equal(t, "/opt/grpcurl", cfg.GrpcurlPath)
	assert.False(t, cfg.IsPlaintext())
	assert.Equal(t, 8, cfg.EventBuffer)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"reject policy", func(c *Config) { c.OnCollision = session.CollisionReject }, ""},
		{"negative max sessions", func(c *Config) { c.MaxSessions = -1 }, "max_sessions"},
		{"negative buffer", func(c *Config) { c.EventBuffer = -1 }, "event_buffer"},
		{"negative timeout", func(c *Config) { c.InvokeTimeout = -1 }, "invoke_timeout"},
		{"unknown policy", func(c *Config) { c.OnCollision = "queue" }, "on_collision"},
		{"bad header", func(c *Config) { c.Headers = []string{"no-colon"} }, "header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"grpcstream.toml", `
grpcurl_path = "/usr/local/bin/grpcurl"
plaintext = false
insecure = true
headers = ["authorization: Bearer abc"]
max_sessions = 4
on_collision = "reject"
invoke_timeout = "5s"
`},
		{"grpcstream.yaml", `
grpcurl_path: /usr/local/bin/grpcurl
plaintext: false
insecure: true
headers:
  - "authorization: Bearer abc"
max_sessions: 4
on_collision: reject
invoke_timeout: 5s
`},
		{"grpcstream.json", `{
  "grpcurl_path": "/usr/local/bin/grpcurl",
  "plaintext": false,
  "insecure": true,
  "headers": ["authorization: Bearer abc"],
  "max_sessions": 4,
  "on_collision": "reject",
  "invoke_timeout": "5s"
}`},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "/usr/local/bin/grpcurl", cfg.GrpcurlPath)
			assert.False(t, cfg.IsPlaintext())
			assert.True(t, cfg.Insecure)
			assert.Equal(t, []string{"authorization: Bearer abc"}, cfg.Headers)
			assert.Equal(t, 4, cfg.MaxSessions)
			assert.Equal(t, session.CollisionReject, cfg.OnCollision)
			assert.Equal(t, 5*time.Second, cfg.InvokeTimeout.Std())
			assert.Equal(t, 256, cfg.EventBuffer, "defaults fill unset fields")
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "grpcstream.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o644))
	_, err = Load(ini)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("on_collision: queue\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_collision")

	badDuration := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badDuration, []byte(`{"invoke_timeout":"soon"}`), 0o644))
	_, err = Load(badDuration)
	assert.Error(t, err)
}

func TestDecode_EmptyYAMLUsesDefaults(t *testing.T) {
	cfg, err := Decode(nil, ".yml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().GrpcurlPath, cfg.GrpcurlPath)
}
