package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/httpserver"
)

type health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probe(t *testing.T, h http.Handler) (int, health) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	code, body := probe(t, httpserver.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body.Status)
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }}
	failing := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("down") }}

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		code, body := probe(t, httpserver.ReadinessHandler(nil, time.Second, ok))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok"}, body.Checks)
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()
		code, body := probe(t, httpserver.ReadinessHandler(nil, time.Second, ok, failing))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "fail"}, body.Checks)
	})

	t.Run("timeout reaches checks", func(t *testing.T) {
		t.Parallel()
		slow := httpserver.Check{Name: "mongo", Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		code, _ := probe(t, httpserver.ReadinessHandler(nil, 10*time.Millisecond, slow))
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}
