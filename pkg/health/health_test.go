package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func passing() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func failingWith(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func getLive(t *testing.T, h *Health) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	return w.Code, decodeStatus(t, w)
}

func getReady(t *testing.T, h *Health) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w.Code, decodeStatus(t, w)
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusResponse {
	t.Helper()
	var body statusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

// drive runs a probe n times in a row.
func drive(p *probe, n int) {
	for range n {
		p.run(context.Background())
	}
}

// --- Tests ---

func TestLiveEndpoint(t *testing.T) {
	t.Run("all passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("check1", time.Second, passing())
		h.AddLivenessCheck("check2", time.Second, passing())

		code, body := getLive(t, h)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
		assert.Empty(t, body.Checks)
	})

	t.Run("no checks registered", func(t *testing.T) {
		code, body := getLive(t, New())
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("failing past threshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("db", time.Second, failingWith("connection refused"))

		// Probes start healthy; three consecutive failures flip them.
		drive(h.livenessChecks[0], 3)

		code, body := getLive(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "connection refused", body.Checks["db"])
	})

	t.Run("failing below threshold stays healthy", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failingWith("temporary"))

		drive(h.livenessChecks[0], 2)

		code, _ := getLive(t, h)
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("content type", func(t *testing.T) {
		h := New()
		w := httptest.NewRecorder()
		h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready and passing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("cache", time.Second, passing())
		h.SetReady(true)

		code, body := getReady(t, h)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("gate closed by default", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("cache", time.Second, passing())

		code, body := getReady(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Contains(t, body.Checks, "_readiness")
	})

	t.Run("gate reclosed for drain", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("cache", time.Second, passing())
		h.SetReady(true)

		code, _ := getReady(t, h)
		assert.Equal(t, http.StatusOK, code)

		h.SetReady(false)
		code, _ = getReady(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("lists only failing checks", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("db", time.Second, passing())
		h.AddReadinessCheck("cache", time.Second, failingWith("cache miss"))
		h.SetReady(true)

		drive(h.readinessChecks[1], 3)

		code, body := getReady(t, h)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "cache")
		assert.NotContains(t, body.Checks, "db")
	})

	t.Run("no checks but ready", func(t *testing.T) {
		h := New()
		h.SetReady(true)
		code, _ := getReady(t, h)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, passing())

	assert.False(t, h.IsReady(), "not ready before SetReady")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	// successThreshold is 1: a single pass after a failure streak recovers.
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	p := h.livenessChecks[0]

	drive(p, 3)
	assert.False(t, p.healthy())

	down = false
	drive(p, 1)
	assert.True(t, p.healthy(), "one pass should recover the probe")
}

func TestProbeLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failingWith("timeout"))
	p := h.livenessChecks[0]

	assert.Nil(t, p.lastError(), "no error before first run")

	drive(p, 1)
	assert.EqualError(t, p.lastError(), "timeout")
}

func TestStopIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutine", time.Second, passing())

	h.Start(context.Background(), 100*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	// Exercise run() against the HTTP endpoints under the race detector.
	h := New()
	h.AddLivenessCheck("concurrent", time.Second, failingWith("err"))
	h.AddReadinessCheck("concurrent", time.Second, passing())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()

				w := httptest.NewRecorder()
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

				w = httptest.NewRecorder()
				h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
