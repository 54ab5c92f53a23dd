// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intent

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_ClassifyDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)
	c := NewClassifier()

	properties.Property("classification of identical text is identical", prop.ForAll(
		func(text string) bool {
			return c.Classify(text) == c.Classify(text)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) < 500 }),
	))

	properties.Property("classification ignores letter case", prop.ForAll(
		func(text string) bool {
			return c.Classify(text) == c.Classify(strings.ToUpper(text))
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) < 500 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_KeywordAlwaysFlags(t *testing.T) {
	properties := gopter.NewProperties(nil)
	c := NewClassifier()

	properties.Property("an embedded analytical keyword always sets the analytical flag", prop.ForAll(
		func(prefix string, keyword string) bool {
			return c.Classify(prefix + " " + keyword).Analytical
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) < 200 }),
		gen.OneConstOf("analyze", "compare", "evaluate", "debug", "optimize"),
	))

	properties.Property("an embedded philosophical keyword always sets the philosophical flag", prop.ForAll(
		func(prefix string, keyword string) bool {
			return c.Classify(prefix + " " + keyword).Philosophical
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) < 200 }),
		gen.OneConstOf("consciousness", "existence", "meaning", "mortality"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
