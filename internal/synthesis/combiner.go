// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synthesis

import (
	"sort"
	"strings"
)

// StreamOutput is one backend output participating in a combined response.
type StreamOutput struct {
	Stream  string
	Content string
	Weight  float64
}

// Combiner merges multiple stream outputs with fixed weights. It sits
// downstream of successful execution and is never on the failure path.
type Combiner struct{}

// NewCombiner creates a combiner.
func NewCombiner() *Combiner {
	return &Combiner{}
}

// Combine merges outputs ordered by descending weight (ties by stream
// name for determinism), dropping empty contents. Weights only order
// the merge; content is never truncated by weight.
func (c *Combiner) Combine(outputs []StreamOutput) string {
	kept := make([]StreamOutput, 0, len(outputs))
	for _, o := range outputs {
		if strings.TrimSpace(o.Content) != "" {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) == 1 {
		return kept[0].Content
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Weight != kept[j].Weight {
			return kept[i].Weight > kept[j].Weight
		}
		return kept[i].Stream < kept[j].Stream
	})

	parts := make([]string, 0, len(kept))
	for _, o := range kept {
		parts = append(parts, strings.TrimSpace(o.Content))
	}
	return strings.Join(parts, "\n\n")
}
