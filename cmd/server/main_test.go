package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/bizledger/internal/infrastructure/config"
)

func TestNewHTTPServer(t *testing.T) {
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("HTTP_IDLE_TIMEOUT", "90s")

	cfg, err := config.Load()
	require.NoError(t, err)

	srv := newHTTPServer(cfg, http.NotFoundHandler())
	assert.Equal(t, ":9191", srv.Addr)
	assert.Equal(t, 90*time.Second, srv.IdleTimeout)
	assert.Equal(t, cfg.HTTPReadTimeout, srv.ReadTimeout)
}

func TestRunFailsWithoutDatabase(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL:     "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		DatabaseTimeout: time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, cfg, testLogger())
	require.ErrorContains(t, err, "connect to postgres")
}

func testLogger() zerolog.Logger { return zerolog.Nop() }
