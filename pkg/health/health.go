// Package health implements Kubernetes-style liveness and readiness probes.
//
// Every registered probe runs on its own ticker goroutine. Probes flip state
// on consecutive results only: a probe must fail failureThreshold times in a
// row to become unhealthy and pass successThreshold times in a row to
// recover, which keeps a single slow check from flapping the endpoints.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. nil means healthy.
type CheckFunc func(ctx context.Context) error

// probe is one registered check plus its runtime state.
//
// run is only ever called from the probe's own goroutine, so the consecutive
// counters need no locking. state and lastErr are read from HTTP handler
// goroutines and therefore atomic.
type probe struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	state   atomic.Bool
	lastErr atomic.Pointer[error]

	fails  int
	passes int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	// Healthy until proven otherwise, so a slow first probe does not fail
	// the pod on startup.
	p.state.Store(true)
	return p
}

func (p *probe) healthy() bool {
	return p.state.Load()
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

// run executes the probe once and applies the thresholds.
func (p *probe) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(probeCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= p.failureThreshold {
			p.state.Store(false)
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= p.successThreshold {
		p.state.Store(true)
	}
}

// Health aggregates liveness and readiness probes for a service.
type Health struct {
	ready atomic.Bool

	// mu guards the probe slices and cancel. Handlers snapshot the slices
	// under RLock; probe state itself is atomic.
	mu              sync.RWMutex
	livenessChecks  []*probe
	readinessChecks []*probe
	cancel          context.CancelFunc
}

// New creates a Health starting in the not-ready state; call SetReady(true)
// once initialization is done.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for /livez. Liveness answers "is the
// process itself broken": goroutine leaks, deadlocks.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.livenessChecks = append(h.livenessChecks, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe for /readyz. Readiness answers "can
// this instance serve traffic right now": backing stores reachable.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readinessChecks = append(h.readinessChecks, newProbe(name, timeout, check))
}

// Start runs every registered probe on its own goroutine at the given
// interval. Register all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.livenessChecks)+len(h.readinessChecks))
	probes = append(probes, h.livenessChecks...)
	probes = append(probes, h.readinessChecks...)
	h.mu.Unlock()

	for _, p := range probes {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}()
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it false
// first so load balancers drain this instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is currently passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	probes := h.readinessChecks
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.healthy() {
			return false
		}
	}
	return true
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while all liveness probes
// pass, 503 with the failing probes otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.livenessChecks))
	copy(probes, h.livenessChecks)
	h.mu.RUnlock()

	respond(w, failing(probes))
}

// ReadyEndpoint serves /readyz: ok only when the manual gate is open and all
// readiness probes pass.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.readinessChecks))
	copy(probes, h.readinessChecks)
	h.mu.RUnlock()

	fails := failing(probes)
	if !ready {
		fails["_readiness"] = "service is not ready"
	}
	respond(w, fails)
}

// failing maps probe name to last error text for every unhealthy probe. It
// reports stored state and never re-runs a probe on the request path.
func failing(probes []*probe) map[string]string {
	fails := make(map[string]string)
	for _, p := range probes {
		if p.healthy() {
			continue
		}
		if err := p.lastError(); err != nil {
			fails[p.name] = err.Error()
		} else {
			fails[p.name] = "check is unhealthy"
		}
	}
	return fails
}

func respond(w http.ResponseWriter, fails map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(fails) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = fails
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
