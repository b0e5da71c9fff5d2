package main

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notes/tarefas/internal/config"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "sqlite memory", raw: "sqlite::memory:", want: "sqlite::memory:"},
		{name: "user and password", raw: "postgres://app:s3cret@db:5432/tarefas", want: "postgres://app@db:5432/tarefas"},
		{name: "password only", raw: "redis://:s3cret@cache:6379/0", want: "redis://redacted@cache:6379/0"},
		{name: "password query", raw: "postgres://db/tarefas?password=s3cret&sslmode=disable", want: "postgres://db/tarefas?password=redacted&sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactURL(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "s3cret")
		})
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://app:s3cret@db:5432/tarefas"
	err := errors.New("dial " + dsn + ": refused (password=s3cret)")

	got := sanitizeError(err, dsn)

	assert.NotContains(t, got, "s3cret")
	assert.Contains(t, got, "postgres://app@db:5432/tarefas")
	assert.Contains(t, got, "password=redacted")
	assert.Empty(t, sanitizeError(nil, dsn))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestAuthMode(t *testing.T) {
	assert.Equal(t, "plaintext", authMode(&config.Config{AuthToken: "x"}))
	assert.Equal(t, "argon2id", authMode(&config.Config{AuthTokenHash: "$argon2id$..."}))
}
