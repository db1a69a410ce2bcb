package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log, level := New(&buf, slog.LevelInfo, FormatJSON)

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	level.Set(slog.LevelDebug)
	WithComponent(log, "session").Debug("visible", slog.String("key", "a-b"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "visible", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.Equal(t, "a-b", rec["key"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, _ := New(&buf, slog.LevelInfo, FormatText)
	log.Info("started", "sessions", 2)
	assert.Contains(t, buf.String(), "msg=started")
	assert.Contains(t, buf.String(), "sessions=2")
}

func TestWithComponent_NilLogger(t *testing.T) {
	assert.NotNil(t, WithComponent(nil, "x"))
}
