// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package executor runs one backend call per routing decision with a
// strict failover discipline: on primary failure exactly one backup
// backend (from a static affinity table) is attempted, and on a second
// failure the deterministic local synthesizer answers. The executor is
// the only component that reports outcomes to the health oracle.
package executor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/backend"
	"github.com/mindmesh/synthroute/internal/events"
	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/metrics"
	"github.com/mindmesh/synthroute/internal/routing"
	"github.com/mindmesh/synthroute/internal/synthesis"
)

// Entry is one admitted unit of work: the request plus its routing decision.
type Entry struct {
	Request  routing.Request
	Decision routing.Decision
}

// Executor executes entries against backends with one-shot failover.
type Executor struct {
	registry *backend.Registry
	oracle   *health.Oracle
	affinity *AffinityTable
	local    *synthesis.Local
	bus      *events.Bus
}

// New creates an executor. The bus may be nil; failover and fallback
// events are then only logged.
func New(registry *backend.Registry, oracle *health.Oracle, affinity *AffinityTable, local *synthesis.Local, bus *events.Bus) *Executor {
	return &Executor{
		registry: registry,
		oracle:   oracle,
		affinity: affinity,
		local:    local,
		bus:      bus,
	}
}

// Execute runs the entry to completion. It never returns an error: both
// backends failing degrades to local synthesis, which always succeeds.
// At most two distinct backends are called.
func (e *Executor) Execute(ctx context.Context, entry Entry) routing.Result {
	started := time.Now()
	decision := entry.Decision

	content, primaryErr := e.callBackend(ctx, decision.Backend, entry.Request.Text)
	if primaryErr == nil {
		return routing.Result{
			Content:      content,
			StrategyUsed: routing.StrategyPrimary,
			Backend:      decision.Backend,
			Confidence:   decision.Confidence,
			LatencyMs:    time.Since(started).Milliseconds(),
		}
	}

	reason := primaryErr.Error()
	backup := e.affinity.Backup(decision.Backend, CategoryOf(decision.SynthesisType))
	log.Warnf("executor: primary %s failed for request %s (%s), trying backup %s",
		decision.Backend, entry.Request.ID, backend.KindOf(primaryErr), backup)
	metrics.Failovers.WithLabelValues(decision.Backend).Inc()
	if e.bus != nil {
		e.bus.PublishAsync(&events.Event{
			Type:      events.EventFailover,
			Backend:   backup,
			RequestID: entry.Request.ID,
			Data: map[string]interface{}{
				"primary": decision.Backend,
				"reason":  reason,
			},
		})
	}

	content, backupErr := e.callBackend(ctx, backup, entry.Request.Text)
	if backupErr == nil {
		return routing.Result{
			Content:      content,
			StrategyUsed: routing.StrategyBackup,
			Backend:      backup,
			Confidence:   decision.Confidence * 0.8,
			Failover: &routing.FailoverInfo{
				PrimaryFailed: decision.Backend,
				BackupUsed:    backup,
				Reason:        reason,
			},
			LatencyMs: time.Since(started).Milliseconds(),
		}
	}

	log.Warnf("executor: backup %s also failed for request %s (%s), using local synthesis",
		backup, entry.Request.ID, backend.KindOf(backupErr))
	metrics.LocalFallbacks.Inc()
	if e.bus != nil {
		e.bus.PublishAsync(&events.Event{
			Type:      events.EventLocalFallback,
			RequestID: entry.Request.ID,
			Data: map[string]interface{}{
				"primary": decision.Backend,
				"backup":  backup,
			},
		})
	}

	result := e.local.Synthesize(entry.Request)
	result.Failover = &routing.FailoverInfo{
		PrimaryFailed: decision.Backend,
		BackupUsed:    backup,
		Reason:        reason + "; backup: " + backupErr.Error(),
	}
	result.LatencyMs = time.Since(started).Milliseconds()
	return result
}

// callBackend performs a single timed call and reports the outcome to
// the health oracle. A backend name missing from the registry counts as
// a failed attempt so it flows into the normal failover path.
func (e *Executor) callBackend(ctx context.Context, name, prompt string) (string, error) {
	client, ok := e.registry.Get(name)
	if !ok {
		log.Errorf("executor: backend %q not registered", name)
		return "", errBackendUnknown(name)
	}

	started := time.Now()
	content, err := client.Call(ctx, prompt)
	latency := time.Since(started)

	metrics.BackendLatency.WithLabelValues(name).Observe(latency.Seconds())

	out := routing.Outcome{
		Backend: name,
		Success: err == nil,
		Latency: latency,
	}
	if err != nil {
		out.ErrorKind = string(backend.KindOf(err))
		metrics.BackendCalls.WithLabelValues(name, "failure").Inc()
	} else {
		metrics.BackendCalls.WithLabelValues(name, "success").Inc()
	}
	e.oracle.RecordOutcome(out)

	return content, err
}

type unknownBackendError struct{ name string }

func (e *unknownBackendError) Error() string { return "backend not registered: " + e.name }

func errBackendUnknown(name string) error { return &unknownBackendError{name: name} }
