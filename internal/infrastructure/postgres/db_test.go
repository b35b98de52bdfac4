package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	require.Error(t, err)
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewPoolWithConfig(ctx, PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		ConnectTimeout: 500 * time.Millisecond,
	})
	require.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	require.Positive(t, ups)
	require.Equal(t, ups, downs)
}
