// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package service wires the synthesis pipeline together behind one
// synchronous call: classify, select a strategy, admit by tier, execute
// with failover. Backend failures never surface as errors; only queue
// saturation, shutdown, and caller context expiry do.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/executor"
	"github.com/mindmesh/synthroute/internal/metrics"
	"github.com/mindmesh/synthroute/internal/queue"
	"github.com/mindmesh/synthroute/internal/routing"
	"github.com/mindmesh/synthroute/internal/strategy"
	"github.com/mindmesh/synthroute/internal/synthesis"
)

// Input is the inbound synthesis call from the transport boundary.
type Input struct {
	// Text is the raw request text.
	Text string `json:"text"`

	// Streams optionally names the synthesis streams to produce. More
	// than one stream engages the combiner on the way out.
	Streams []string `json:"streams,omitempty"`

	// Metrics is the upstream synthesis metrics vector.
	Metrics routing.Metrics `json:"metrics"`
}

// Service is the synthesis pipeline facade.
type Service struct {
	selector   *strategy.Selector
	controller *queue.Controller
	combiner   *synthesis.Combiner
	local      *synthesis.Local
}

// New creates the pipeline facade.
func New(selector *strategy.Selector, controller *queue.Controller, combiner *synthesis.Combiner, local *synthesis.Local) *Service {
	return &Service{
		selector:   selector,
		controller: controller,
		combiner:   combiner,
		local:      local,
	}
}

// Synthesize runs one request through the pipeline and blocks until a
// result is available. It returns an error only for queue saturation,
// shutdown, or caller context expiry; backend failures degrade to local
// synthesis inside the executor and still produce a result.
func (s *Service) Synthesize(ctx context.Context, in Input) (routing.Result, error) {
	req := routing.Request{
		ID:          uuid.NewString(),
		Text:        in.Text,
		Streams:     in.Streams,
		ArrivalTime: time.Now(),
	}

	decision := s.selector.Select(req, in.Metrics)

	log.WithFields(log.Fields{
		"request_id": req.ID,
		"backend":    decision.Backend,
		"tier":       decision.Tier.String(),
	}).Debug("request admitted to pipeline")

	result, err := s.controller.Admit(ctx, executor.Entry{Request: req, Decision: decision})
	if err != nil {
		return routing.Result{}, err
	}

	if len(req.Streams) > 1 {
		result.Content = s.combineStreams(req, result)
	}

	metrics.RequestCount.WithLabelValues(decision.Tier.String(), string(result.StrategyUsed)).Inc()

	return result, nil
}

// combineStreams merges the backend output with locally synthesized
// secondary streams using fixed weights. The backend output dominates;
// secondary streams share the remaining weight. This path performs no
// extra backend calls, so the two-backend execution bound holds.
func (s *Service) combineStreams(req routing.Request, result routing.Result) string {
	outputs := []synthesis.StreamOutput{
		{Stream: req.Streams[0], Content: result.Content, Weight: 0.7},
	}

	secondary := req.Streams[1:]
	weight := 0.3 / float64(len(secondary))
	for _, name := range secondary {
		fragment := s.local.Synthesize(routing.Request{
			ID:      req.ID,
			Text:    req.Text,
			Streams: []string{name},
		})
		outputs = append(outputs, synthesis.StreamOutput{
			Stream:  name,
			Content: fragment.Content,
			Weight:  weight,
		})
	}

	return s.combiner.Combine(outputs)
}
