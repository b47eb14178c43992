// Package health serves liveness and readiness probes.
//
// Every check runs in its own goroutine on a fixed interval. A check turns
// unhealthy after FailureThreshold consecutive failures and healthy again
// after SuccessThreshold consecutive passes, so a single blip never flips a
// probe.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Thresholds control how many consecutive results flip a check.
type Thresholds struct {
	Failure int
	Success int
}

// DefaultThresholds are used by AddLivenessCheck and AddReadinessCheck.
var DefaultThresholds = Thresholds{Failure: 3, Success: 1}

// probe is one registered check. run is only ever called from a single
// goroutine, so the streak counters need no locking; healthy and lastErr are
// read concurrently by the endpoints.
type probe struct {
	name       string
	timeout    time.Duration
	check      CheckFunc
	thresholds Thresholds

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	failStreak int
	passStreak int
}

func newProbe(name string, timeout time.Duration, check CheckFunc, th Thresholds) *probe {
	p := &probe{name: name, timeout: timeout, check: check, thresholds: th}
	p.healthy.Store(true)
	return p
}

func (p *probe) isHealthy() bool { return p.healthy.Load() }

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passStreak = 0
		p.failStreak++
		if p.failStreak >= p.thresholds.Failure {
			p.healthy.Store(false)
		}
		return
	}
	p.failStreak = 0
	p.passStreak++
	if p.passStreak >= p.thresholds.Success {
		p.healthy.Store(true)
	}
}

func (p *probe) loop(ctx context.Context, interval time.Duration) {
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
}

// Health tracks liveness and readiness of the service.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check of process health.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.AddLivenessCheckWith(name, timeout, DefaultThresholds, check)
}

// AddLivenessCheckWith is AddLivenessCheck with custom thresholds.
func (h *Health) AddLivenessCheckWith(name string, timeout time.Duration, th Thresholds, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check, th))
}

// AddReadinessCheck registers a check of a dependency the service needs to
// serve traffic, such as the database.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.AddReadinessCheckWith(name, timeout, DefaultThresholds, check)
}

// AddReadinessCheckWith is AddReadinessCheck with custom thresholds.
func (h *Health) AddReadinessCheckWith(name string, timeout time.Duration, th Thresholds, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check, th))
}

// Start runs every registered check on interval until Stop or ctx is done.
// Register all checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := slices.Concat(h.liveness, h.readiness)
	h.mu.Unlock()

	for _, p := range probes {
		go p.loop(ctx, interval)
	}
}

// Stop stops the check goroutines. It is idempotent.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady sets the manual readiness flag. Shutdown flips it to false so load
// balancers drain the instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	for _, p := range h.snapshot(false) {
		if !p.isHealthy() {
			return false
		}
	}
	return true
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(true)))
}

// ReadyEndpoint serves /readyz. The manual flag shows up as "_readiness".
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(false))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func (h *Health) snapshot(liveness bool) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if liveness {
		return slices.Clone(h.liveness)
	}
	return slices.Clone(h.readiness)
}

// failures maps unhealthy check names to their last error. Checks are not
// re-run.
func failures(probes []*probe) map[string]string {
	out := make(map[string]string)
	for _, p := range probes {
		if p.isHealthy() {
			continue
		}
		msg := "check is unhealthy"
		if err := p.lastError(); err != nil {
			msg = err.Error()
		}
		out[p.name] = msg
	}
	return out
}

// writeStatus writes {"status": "ok"} or {"status": "unhealthy", "checks":
// {...}} with 200 or 503.
func writeStatus(w http.ResponseWriter, failed map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	status := http.StatusOK
	e.Obj(func(e *jx.Encoder) {
		if len(failed) == 0 {
			e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
			return
		}
		status = http.StatusServiceUnavailable
		e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				names := make([]string, 0, len(failed))
				for name := range failed {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failed[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status is already sent; a write error means the client left.
	_, _ = w.Write(e.Bytes())
}
