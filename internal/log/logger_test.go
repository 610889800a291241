package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
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
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
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

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	logger.Info("hello", FieldUserID, int64(7))

	out := buf.String()
	assert.Contains(t, out, `"component":"http"`)
	assert.Contains(t, out, `"user_id":7`)
}

func TestWithComponent_ReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf}).
		With(FieldRequestID, "req_1").
		WithComponent(ComponentAuth)

	logger.Info("login")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "component="))
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "request_id=req_1")
	assert.Equal(t, ComponentAuth, logger.Component())
}

func TestFromContext(t *testing.T) {
	logger := New(DefaultConfig())
	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	fallback := FromContext(context.Background())
	require.NotNil(t, fallback)
	assert.Equal(t, "unknown", fallback.Component())
}

func TestStructuredLogger_LogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{500, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
		r := httptest.NewRequest("GET", "/api/stats", nil)

		sl.LogHTTPEnd(context.Background(), r, "req_x", tt.status, 3, "127.0.0.1")

		assert.Contains(t, buf.String(), tt.level)
		assert.Contains(t, buf.String(), "request_id=req_x")
	}
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	sl.LogError(context.Background(), "store failed", errors.New("boom"), OpCreate, NewFields().WithUser(3))

	out := buf.String()
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "operation=create")
	assert.Contains(t, out, "user_id=3")
}
