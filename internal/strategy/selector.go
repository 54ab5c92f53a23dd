// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package strategy turns classified intent and upstream synthesis
// metrics into a routing decision. Selection is stateless and
// decision-only: an unavailable backend demotes the rationale but is
// never re-selected here, because availability is enforced downstream
// by the executor's failover.
package strategy

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/intent"
	"github.com/mindmesh/synthroute/internal/routing"
)

// Backends names the fixed backend roles the rule table routes to.
// The concrete provider behind each role comes from configuration.
type Backends struct {
	Precision    string `yaml:"precision"`
	Creative     string `yaml:"creative"`
	HighCapacity string `yaml:"high-capacity"`
}

// DefaultBackends returns the role names used when configuration does
// not map roles to differently named backends.
func DefaultBackends() Backends {
	return Backends{
		Precision:    "precision",
		Creative:     "creative",
		HighCapacity: "high-capacity",
	}
}

// rule is one row of the ordered routing table. Rules are evaluated
// top-down; the first match wins and ties within a tier break by
// declaration order.
type rule struct {
	name    string
	match   func(sig intent.Signals, codeRelated bool) bool
	backend func(b Backends) string
	tier    routing.Tier
}

var ruleTable = []rule{
	{
		name: "analytical",
		match: func(sig intent.Signals, codeRelated bool) bool {
			return sig.Analytical || codeRelated
		},
		backend: func(b Backends) string { return b.Precision },
		tier:    routing.TierHigh,
	},
	{
		name: "creative",
		match: func(sig intent.Signals, _ bool) bool {
			return sig.Creative || sig.Emotional
		},
		backend: func(b Backends) string { return b.Creative },
		tier:    routing.TierHigh,
	},
	{
		name: "philosophical",
		match: func(sig intent.Signals, _ bool) bool {
			return sig.Philosophical
		},
		backend: func(b Backends) string { return b.HighCapacity },
		tier:    routing.TierBackground,
	},
}

// Selector produces routing decisions from intent signals, metrics, and
// the current health snapshot.
type Selector struct {
	classifier *intent.Classifier
	oracle     *health.Oracle
	backends   Backends
}

// NewSelector creates a selector. The oracle is read-only here and may
// be shared with the executor.
func NewSelector(classifier *intent.Classifier, oracle *health.Oracle, backends Backends) *Selector {
	if backends.Precision == "" {
		backends = DefaultBackends()
	}
	return &Selector{
		classifier: classifier,
		oracle:     oracle,
		backends:   backends,
	}
}

// Select walks the rule table top-down and returns the first matching
// decision, falling back to the metric-driven rule when no keyword rule
// fires. The decision always carries a human-readable rationale.
func (s *Selector) Select(req routing.Request, metrics routing.Metrics) routing.Decision {
	sig := s.classifier.Classify(req.Text)
	codeRelated := s.classifier.IsCodeRelated(req.Text)

	var decision routing.Decision
	matched := false

	for _, r := range ruleTable {
		if !r.match(sig, codeRelated) {
			continue
		}
		decision = routing.Decision{
			Backend:       r.backend(s.backends),
			SynthesisType: r.name,
			Tier:          r.tier,
			Confidence:    0.85,
			Rationale:     fmt.Sprintf("keyword rule %q matched", r.name),
		}
		matched = true
		break
	}

	if !matched {
		decision = s.metricFallback(metrics)
	}

	if s.oracle != nil && !s.oracle.IsAvailable(decision.Backend) {
		// Keep the chosen backend; the executor's failover handles
		// availability. Only the rationale and confidence are demoted.
		decision.Confidence *= 0.5
		decision.Rationale += fmt.Sprintf("; backend %s currently unavailable, failover expected", decision.Backend)
	}

	log.Debugf("strategy: request %s routed to %s tier=%s (%s)",
		req.ID, decision.Backend, decision.Tier, decision.Rationale)

	return decision
}

// metricFallback picks the backend matching the highest-scoring
// synthesis metric. Ties break by declaration order: creativity, then
// transcendence, then balance.
func (s *Selector) metricFallback(m routing.Metrics) routing.Decision {
	type candidate struct {
		name    string
		score   float64
		backend string
	}

	candidates := []candidate{
		{"metric-creativity", m.Creativity, s.backends.Creative},
		{"metric-transcendence", m.Transcendence, s.backends.HighCapacity},
		{"metric-balance", m.Balance, s.backends.Precision},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}

	return routing.Decision{
		Backend:       best.backend,
		SynthesisType: best.name,
		Tier:          routing.TierMedium,
		Confidence:    0.5 + best.score/2,
		Rationale:     fmt.Sprintf("no keyword rule matched; %s scored highest (%.2f)", best.name, best.score),
	}
}
