package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return nil }}
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		h := NewHealthHandler(okCheck("postgres"), okCheck("redis"))

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","postgres":"ok","redis":"ok"}`, rec.Body.String())
	})

	t.Run("first failing dependency is reported", func(t *testing.T) {
		h := NewHealthHandler(
			okCheck("postgres"),
			Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
		)

		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "redis unhealthy", body.Error)
		assert.Equal(t, "connection refused", body.Message)
	})
}

func TestRedisCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	check := RedisCheck(client)
	assert.Equal(t, "redis", check.Name)
	require.NoError(t, check.Ping(context.Background()))

	mr.Close()
	require.Error(t, check.Ping(context.Background()))
}
