// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package synthesis holds the backend-free synthesis paths: the
// deterministic local fallback used when every backend call fails, and
// the fixed-weight combiner for multi-stream responses.
package synthesis

import (
	"strings"

	"github.com/mindmesh/synthroute/internal/routing"
)

// localConfidence is deliberately low: a local result signals degraded
// service to the caller without failing the request.
const localConfidence = 0.2

// Default fragment pools keyed by stream name. The fallback never
// performs I/O, so these locally held strings are the only material it
// can work with besides the request text itself.
var defaultFragments = map[string]string{
	"reflective": "Let me consider this carefully. There are several angles worth weighing here. " +
		"Each perspective contributes something to a fuller answer.",
	"direct": "Here is the most direct response I can offer right now. " +
		"External synthesis is temporarily unavailable. A reduced local answer follows.",
}

// Local is the always-succeeding fallback synthesizer.
type Local struct {
	fragments map[string]string
}

// NewLocal creates a local synthesizer. Custom fragments override the
// defaults per stream name; unknown streams fall back to the default pool.
func NewLocal(fragments map[string]string) *Local {
	merged := make(map[string]string, len(defaultFragments)+len(fragments))
	for k, v := range defaultFragments {
		merged[k] = v
	}
	for k, v := range fragments {
		if strings.TrimSpace(v) != "" {
			merged[k] = v
		}
	}
	return &Local{fragments: merged}
}

// Synthesize deterministically interleaves the sentences of the
// fragment pools matching the request's streams. It never fails and is
// idempotent for identical inputs.
func (l *Local) Synthesize(req routing.Request) routing.Result {
	first, second := l.fragmentPair(req.Streams)
	content := Interleave(first, second)

	if strings.TrimSpace(content) == "" {
		// Both pools empty; echo a minimal acknowledgement so the
		// result is still non-empty.
		content = "I could not reach any synthesis backend, but I received: " + req.Text
	}

	return routing.Result{
		Content:      content,
		StrategyUsed: routing.StrategyLocal,
		Confidence:   localConfidence,
	}
}

// fragmentPair resolves the two fragment pools to interleave. Requested
// streams are honored in order when they name known pools; missing ones
// fall back to the reflective/direct defaults.
func (l *Local) fragmentPair(streams []string) (string, string) {
	pools := make([]string, 0, 2)
	for _, s := range streams {
		if frag, ok := l.fragments[s]; ok {
			pools = append(pools, frag)
		}
		if len(pools) == 2 {
			break
		}
	}
	if len(pools) < 2 {
		if len(pools) == 0 {
			pools = append(pools, l.fragments["reflective"])
		}
		pools = append(pools, l.fragments["direct"])
	}
	return pools[0], pools[1]
}

// Interleave alternates sentences from a and b, appending the remainder
// of the longer input. Sentence order within each input is preserved.
func Interleave(a, b string) string {
	sa := SplitSentences(a)
	sb := SplitSentences(b)

	out := make([]string, 0, len(sa)+len(sb))
	for i := 0; i < len(sa) || i < len(sb); i++ {
		if i < len(sa) {
			out = append(out, sa[i])
		}
		if i < len(sb) {
			out = append(out, sb[i])
		}
	}
	return strings.Join(out, " ")
}

// SplitSentences splits text on terminal punctuation, keeping the
// punctuation attached to each sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
