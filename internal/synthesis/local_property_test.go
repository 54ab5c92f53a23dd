// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synthesis

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mindmesh/synthroute/internal/routing"
)

func TestProperty_InterleaveDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("interleaving identical inputs is idempotent", prop.ForAll(
		func(a string, b string) bool {
			first := Interleave(a+".", b+".")
			second := Interleave(a+".", b+".")
			return first == second && first != ""
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 200 }),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 200 }),
	))

	properties.Property("every input sentence survives interleaving", prop.ForAll(
		func(a string, b string) bool {
			out := Interleave(a+".", b+".")
			return strings.Contains(out, a+".") && strings.Contains(out, b+".")
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 200 }),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 200 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_LocalSynthesisAlwaysSucceeds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("local synthesis returns a non-empty deterministic result", prop.ForAll(
		func(text string, stream string) bool {
			local := NewLocal(nil)
			req := routing.Request{ID: "p", Text: text, Streams: []string{stream}}

			first := local.Synthesize(req)
			second := local.Synthesize(req)

			return first.Content != "" &&
				first.Content == second.Content &&
				first.StrategyUsed == routing.StrategyLocal
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) < 500 }),
		gen.OneConstOf("reflective", "direct", "unknown-stream"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
