// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package health maintains a rolling view of per-backend latency and
// error rate and decides when a backend's circuit should open. The
// oracle performs no I/O and never blocks: it is updated synchronously
// by the executor after each backend call and read by the strategy
// selector and the metrics boundary.
package health

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/events"
	"github.com/mindmesh/synthroute/internal/routing"
)

// Config holds circuit-breaker and smoothing settings.
type Config struct {
	// EWMAAlpha is the smoothing factor for the rolling latency
	// estimate. Higher values weight recent calls more heavily.
	EWMAAlpha float64 `yaml:"ewma-alpha"`

	// Window is the trailing window over which the error rate is computed.
	Window time.Duration `yaml:"window"`

	// ErrorRateThreshold opens the circuit when the windowed error rate
	// meets or exceeds it.
	ErrorRateThreshold float64 `yaml:"error-rate-threshold"`

	// MinSamples is the minimum number of outcomes in the window before
	// the threshold is evaluated, so a single early failure cannot trip
	// the breaker.
	MinSamples int `yaml:"min-samples"`

	// Cooldown is how long an opened circuit stays open.
	Cooldown time.Duration `yaml:"cooldown"`
}

// DefaultConfig returns the oracle settings used when the config file
// does not override them.
func DefaultConfig() Config {
	return Config{
		EWMAAlpha:          0.3,
		Window:             30 * time.Second,
		ErrorRateThreshold: 0.5,
		MinSamples:         3,
		Cooldown:           60 * time.Second,
	}
}

// Record is the externally visible health view for one backend.
// Snapshot returns copies; callers must not assume shared state.
type Record struct {
	Backend        string    `json:"backend"`
	LatencyMs      float64   `json:"latency_ms"`
	ErrorRate      float64   `json:"error_rate"`
	LastUpdated    time.Time `json:"last_updated"`
	CircuitOpen    bool      `json:"circuit_open"`
	WindowSamples  int       `json:"window_samples"`
	WindowFailures int       `json:"window_failures"`
}

// outcome is one recorded call result inside the trailing window.
type outcome struct {
	at      time.Time
	success bool
}

// backendState holds the mutable health state for a single backend.
// Each backend has its own lock so concurrent workers reporting
// outcomes for different backends never contend.
type backendState struct {
	mu          sync.Mutex
	name        string
	ewmaMs      float64
	ewmaInit    bool
	window      []outcome
	lastUpdated time.Time
	openUntil   time.Time
}

// Oracle tracks health for a fixed, statically configured set of
// backends. Backends are registered at construction and never removed.
type Oracle struct {
	cfg      Config
	backends map[string]*backendState
	bus      *events.Bus

	// now is swappable for tests.
	now func() time.Time
}

// NewOracle creates an oracle tracking the given backend names.
// The bus may be nil; circuit transitions are then only logged.
func NewOracle(cfg Config, backends []string, bus *events.Bus) *Oracle {
	if cfg.EWMAAlpha <= 0 || cfg.EWMAAlpha > 1 {
		cfg.EWMAAlpha = DefaultConfig().EWMAAlpha
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.ErrorRateThreshold <= 0 {
		cfg.ErrorRateThreshold = DefaultConfig().ErrorRateThreshold
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultConfig().MinSamples
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}

	o := &Oracle{
		cfg:      cfg,
		backends: make(map[string]*backendState, len(backends)),
		bus:      bus,
		now:      time.Now,
	}
	for _, name := range backends {
		o.backends[name] = &backendState{name: name}
	}
	return o
}

// RecordOutcome folds one execution outcome into the backend's rolling
// state. Unknown backends are ignored with a warning; the backend set
// is fixed at construction.
func (o *Oracle) RecordOutcome(out routing.Outcome) {
	st, ok := o.backends[out.Backend]
	if !ok {
		log.Warnf("health: outcome for unknown backend %q dropped", out.Backend)
		return
	}

	now := o.now()

	st.mu.Lock()

	latencyMs := float64(out.Latency.Milliseconds())
	if !st.ewmaInit {
		st.ewmaMs = latencyMs
		st.ewmaInit = true
	} else {
		st.ewmaMs = o.cfg.EWMAAlpha*latencyMs + (1-o.cfg.EWMAAlpha)*st.ewmaMs
	}

	st.window = append(st.window, outcome{at: now, success: out.Success})
	st.pruneLocked(now, o.cfg.Window)
	st.lastUpdated = now

	wasOpen := now.Before(st.openUntil)
	tripped := false
	if !wasOpen {
		samples, failures := st.windowCountsLocked()
		if samples >= o.cfg.MinSamples {
			rate := float64(failures) / float64(samples)
			if rate >= o.cfg.ErrorRateThreshold {
				st.openUntil = now.Add(o.cfg.Cooldown)
				// Drop the window so the backend re-earns trust after cooldown.
				st.window = st.window[:0]
				tripped = true
			}
		}
	}

	st.mu.Unlock()

	if tripped {
		log.Warnf("health: circuit opened for backend %s (cooldown %s)", out.Backend, o.cfg.Cooldown)
		if o.bus != nil {
			o.bus.PublishAsync(&events.Event{
				Type:    events.EventCircuitOpened,
				Backend: out.Backend,
				Data: map[string]interface{}{
					"cooldown":   o.cfg.Cooldown.String(),
					"error_kind": out.ErrorKind,
				},
			})
		}
	}
}

// IsAvailable reports whether the backend's circuit is closed. A
// backend unknown to the oracle is reported unavailable.
func (o *Oracle) IsAvailable(backend string) bool {
	st, ok := o.backends[backend]
	if !ok {
		return false
	}

	now := o.now()

	st.mu.Lock()
	open := now.Before(st.openUntil)
	reopened := !open && !st.openUntil.IsZero()
	if reopened {
		st.openUntil = time.Time{}
	}
	st.mu.Unlock()

	if reopened {
		log.Infof("health: circuit closed for backend %s", backend)
		if o.bus != nil {
			o.bus.PublishAsync(&events.Event{Type: events.EventCircuitClosed, Backend: backend})
		}
	}

	return !open
}

// Snapshot returns the current health view for every backend. The
// returned records are copies; mutating them has no effect on the oracle.
func (o *Oracle) Snapshot() map[string]Record {
	now := o.now()
	result := make(map[string]Record, len(o.backends))

	for name, st := range o.backends {
		st.mu.Lock()
		st.pruneLocked(now, o.cfg.Window)
		samples, failures := st.windowCountsLocked()
		rec := Record{
			Backend:        name,
			LatencyMs:      st.ewmaMs,
			LastUpdated:    st.lastUpdated,
			CircuitOpen:    now.Before(st.openUntil),
			WindowSamples:  samples,
			WindowFailures: failures,
		}
		if samples > 0 {
			rec.ErrorRate = float64(failures) / float64(samples)
		}
		st.mu.Unlock()
		result[name] = rec
	}

	return result
}

func (s *backendState) pruneLocked(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(s.window) && s.window[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.window = append(s.window[:0], s.window[i:]...)
	}
}

func (s *backendState) windowCountsLocked() (samples, failures int) {
	samples = len(s.window)
	for _, out := range s.window {
		if !out.success {
			failures++
		}
	}
	return samples, failures
}
