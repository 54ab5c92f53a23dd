// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/synthroute/internal/routing"
)

func TestInterleave(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{
			name: "equal length",
			a:    "One. Two.",
			b:    "Alpha. Beta.",
			want: "One. Alpha. Two. Beta.",
		},
		{
			name: "a longer",
			a:    "One. Two. Three.",
			b:    "Alpha.",
			want: "One. Alpha. Two. Three.",
		},
		{
			name: "b longer",
			a:    "One.",
			b:    "Alpha. Beta. Gamma.",
			want: "One. Alpha. Beta. Gamma.",
		},
		{
			name: "empty a",
			a:    "",
			b:    "Alpha. Beta.",
			want: "Alpha. Beta.",
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: "",
		},
		{
			name: "no terminal punctuation",
			a:    "just a fragment",
			b:    "another fragment",
			want: "just a fragment another fragment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interleave(tt.a, tt.b))
		})
	}
}

func TestInterleave_Idempotent(t *testing.T) {
	a := "First thought. Second thought."
	b := "Other view! Final view?"

	first := Interleave(a, b)
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Interleave(a, b))
	}
}

func TestLocal_SynthesizeAlwaysSucceeds(t *testing.T) {
	l := NewLocal(nil)

	res := l.Synthesize(routing.Request{ID: "r1", Text: "anything at all"})

	assert.NotEmpty(t, res.Content)
	assert.Equal(t, routing.StrategyLocal, res.StrategyUsed)
	assert.Less(t, res.Confidence, 0.5, "local results carry low confidence")
}

func TestLocal_SynthesizeDeterministic(t *testing.T) {
	l := NewLocal(nil)
	req := routing.Request{ID: "r1", Text: "hello", Streams: []string{"reflective", "direct"}}

	first := l.Synthesize(req)
	second := l.Synthesize(req)

	assert.Equal(t, first.Content, second.Content)
}

func TestLocal_CustomFragments(t *testing.T) {
	l := NewLocal(map[string]string{
		"calm":  "Breathe in. Breathe out.",
		"sharp": "Focus now. Act quickly.",
	})

	res := l.Synthesize(routing.Request{Streams: []string{"calm", "sharp"}})

	assert.Equal(t, "Breathe in. Focus now. Breathe out. Act quickly.", res.Content)
}

func TestLocal_UnknownStreamsFallBackToDefaults(t *testing.T) {
	l := NewLocal(nil)

	res := l.Synthesize(routing.Request{Streams: []string{"nonexistent"}})

	assert.NotEmpty(t, res.Content)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("One. Two! Three? Four")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)
}
