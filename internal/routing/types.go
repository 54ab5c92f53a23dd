// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package routing defines the shared data model passed through the
// synthesis pipeline: requests, routing decisions, execution outcomes,
// and terminal results. Values in this package are created once and
// passed by value; none of them carry mutable shared state.
package routing

import "time"

// Tier is the priority class assigned to a request. It governs queueing
// and worker allocation: HIGH bypasses the general queue entirely,
// MEDIUM and BACKGROUND wait behind the capacity-bounded queue.
type Tier int

const (
	// TierHigh is dispatched immediately on the interactive worker pool.
	TierHigh Tier = iota
	// TierMedium is queued and drained by the background pool ahead of BACKGROUND work.
	TierMedium
	// TierBackground is queued with the lowest drain priority.
	TierBackground
)

// String returns a human-readable name for the tier.
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Strategy identifies which execution path produced a result.
type Strategy string

const (
	// StrategyPrimary means the originally selected backend answered.
	StrategyPrimary Strategy = "primary"
	// StrategyBackup means the one-shot failover backend answered.
	StrategyBackup Strategy = "backup"
	// StrategyLocal means both backends failed and the deterministic
	// local synthesizer produced the result.
	StrategyLocal Strategy = "local"
)

// Request is a single unit of synthesis work. It is immutable once
// created and owned exclusively by the pipeline invocation that created it.
type Request struct {
	// ID is a unique identifier for tracing the request through logs.
	ID string

	// Text is the raw request text to synthesize a response for.
	Text string

	// Streams lists the names of synthesis streams requested by the
	// caller. When more than one stream is requested the combiner merges
	// the outputs with fixed weights.
	Streams []string

	// ArrivalTime is when the request entered the pipeline. Queue
	// ordering within a tier is FIFO by this timestamp.
	ArrivalTime time.Time
}

// Metrics is the numeric feature vector derived from upstream scoring.
// Values are opaque floats in [0,1], consumed read-only by the strategy
// selector's metric-driven fallback rule.
type Metrics struct {
	Creativity    float64 `json:"creativity"`
	Transcendence float64 `json:"transcendence"`
	Balance       float64 `json:"balance"`
}

// Decision is the routing decision produced once per request by the
// strategy selector. It is immutable and passed by value down the pipeline.
type Decision struct {
	// Backend is the name of the selected primary backend.
	Backend string

	// SynthesisType names the kind of synthesis the rule matched
	// (e.g. "analytical", "creative", "metric-creativity").
	SynthesisType string

	// Tier is the priority class for admission.
	Tier Tier

	// Confidence is the selector's confidence in the decision (0.0-1.0).
	Confidence float64

	// Rationale is a human-readable explanation for observability.
	Rationale string
}

// Outcome reports the result of a single backend call attempt. It is
// transient: consumed immediately by the health oracle and by the
// failover decision logic, then discarded.
type Outcome struct {
	Backend   string
	Success   bool
	Latency   time.Duration
	ErrorKind string
}

// FailoverInfo describes a completed failover for inclusion in the
// terminal result.
type FailoverInfo struct {
	PrimaryFailed string `json:"primary_failed"`
	BackupUsed    string `json:"backup_used"`
	Reason        string `json:"reason"`
}

// Result is the terminal value returned to the caller. The pipeline
// always produces one: backend failures degrade to local synthesis
// rather than surfacing an error.
type Result struct {
	// Content is the synthesized text.
	Content string `json:"content"`

	// StrategyUsed records which execution path produced the content.
	StrategyUsed Strategy `json:"strategy_used"`

	// Backend is the backend that produced the content, empty for local.
	Backend string `json:"backend,omitempty"`

	// Confidence mirrors the routing decision confidence, lowered when
	// the result came from the local fallback.
	Confidence float64 `json:"confidence"`

	// Failover is populated when the backup path produced the content.
	Failover *FailoverInfo `json:"failover,omitempty"`

	// LatencyMs is the total wall time spent executing backend calls.
	LatencyMs int64 `json:"latency_ms"`
}
