// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package strategy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/intent"
	"github.com/mindmesh/synthroute/internal/routing"
)

func newTestSelector(oracle *health.Oracle) *Selector {
	return NewSelector(intent.NewClassifier(), oracle, DefaultBackends())
}

func req(text string) routing.Request {
	return routing.Request{ID: "r1", Text: text, ArrivalTime: time.Now()}
}

func TestSelector_AnalyticalRoutesToPrecisionHigh(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("analyze this architecture"), routing.Metrics{})

	assert.Equal(t, "precision", d.Backend)
	assert.Equal(t, routing.TierHigh, d.Tier)
	assert.Equal(t, "analytical", d.SynthesisType)
	assert.NotEmpty(t, d.Rationale)
}

func TestSelector_CodeRelatedRoutesToPrecision(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("fix this func main() { panic(1) }"), routing.Metrics{})

	assert.Equal(t, "precision", d.Backend)
	assert.Equal(t, routing.TierHigh, d.Tier)
}

func TestSelector_CreativeAndEmotionalRouteToCreativeHigh(t *testing.T) {
	s := newTestSelector(nil)

	for _, text := range []string{
		"write me a poem about rain",
		"I feel so lonely tonight",
	} {
		d := s.Select(req(text), routing.Metrics{})
		assert.Equal(t, "creative", d.Backend, "text %q", text)
		assert.Equal(t, routing.TierHigh, d.Tier)
	}
}

func TestSelector_PhilosophicalRoutesToHighCapacityBackground(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("what is the purpose of the universe"), routing.Metrics{})

	assert.Equal(t, "high-capacity", d.Backend)
	assert.Equal(t, routing.TierBackground, d.Tier)
}

func TestSelector_RuleOrderAnalyticalWinsOverCreative(t *testing.T) {
	s := newTestSelector(nil)

	// Matches both analytical and creative keywords; first rule wins.
	d := s.Select(req("analyze this story structure"), routing.Metrics{})

	assert.Equal(t, "precision", d.Backend)
	assert.Equal(t, "analytical", d.SynthesisType)
}

func TestSelector_MetricFallbackPicksHighestScore(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("hello there"), routing.Metrics{
		Creativity:    0.9,
		Transcendence: 0.2,
		Balance:       0.3,
	})

	assert.Equal(t, "creative", d.Backend)
	assert.Equal(t, routing.TierMedium, d.Tier)
	assert.Equal(t, "metric-creativity", d.SynthesisType)
}

func TestSelector_MetricFallbackTieBreaksByDeclarationOrder(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("hello there"), routing.Metrics{
		Creativity:    0.5,
		Transcendence: 0.5,
		Balance:       0.5,
	})

	// Creativity is declared first so it wins ties.
	assert.Equal(t, "creative", d.Backend)
	assert.Equal(t, "metric-creativity", d.SynthesisType)
}

func TestSelector_MetricFallbackTranscendence(t *testing.T) {
	s := newTestSelector(nil)

	d := s.Select(req("hello there"), routing.Metrics{Transcendence: 0.8})

	assert.Equal(t, "high-capacity", d.Backend)
	assert.Equal(t, routing.TierMedium, d.Tier)
}

func TestSelector_UnavailableBackendKeptWithDemotedRationale(t *testing.T) {
	cfg := health.DefaultConfig()
	cfg.MinSamples = 1
	oracle := health.NewOracle(cfg, []string{"precision", "creative", "high-capacity"}, nil)
	oracle.RecordOutcome(routing.Outcome{Backend: "precision", Success: false, Latency: time.Second})

	s := newTestSelector(oracle)
	d := s.Select(req("analyze the data"), routing.Metrics{})

	// Selection never re-routes around an open circuit.
	assert.Equal(t, "precision", d.Backend)
	assert.Equal(t, routing.TierHigh, d.Tier)
	assert.True(t, strings.Contains(d.Rationale, "unavailable"), "rationale should note unavailability: %s", d.Rationale)
	assert.Less(t, d.Confidence, 0.85)
}
