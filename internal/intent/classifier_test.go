// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intent

import (
	"testing"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name string
		text string
		want Signals
	}{
		{
			name: "analytical request",
			text: "analyze this architecture",
			want: Signals{Analytical: true},
		},
		{
			name: "creative request",
			text: "write me a story about the sea",
			want: Signals{Creative: true},
		},
		{
			name: "emotional request",
			text: "I feel so lonely today",
			want: Signals{Emotional: true},
		},
		{
			name: "philosophical request",
			text: "what is the meaning of existence?",
			want: Signals{Philosophical: true},
		},
		{
			name: "mixed signals",
			text: "imagine how consciousness could feel",
			want: Signals{Creative: true, Emotional: true, Philosophical: true},
		},
		{
			name: "no keyword matches",
			text: "hello there",
			want: Signals{},
		},
		{
			name: "empty text",
			text: "",
			want: Signals{},
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: Signals{},
		},
		{
			name: "case insensitive",
			text: "ANALYZE THE DATA",
			want: Signals{Analytical: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			if got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier()
	text := "analyze the dream of consciousness"

	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); got != first {
			t.Fatalf("Classify is not deterministic: %+v != %+v", got, first)
		}
	}
}

func TestClassifier_IsCodeRelated(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		text string
		want bool
	}{
		{"fix this func main() panic", true},
		{"```python\nprint('hi')\n```", true},
		{"refactor the session handler", true},
		{"I got an error in server.go", true},
		{"tell me about your day", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := c.IsCodeRelated(tt.text); got != tt.want {
			t.Errorf("IsCodeRelated(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSignals_Any(t *testing.T) {
	if (Signals{}).Any() {
		t.Error("empty signals should report Any()=false")
	}
	if !(Signals{Emotional: true}).Any() {
		t.Error("expected Any()=true when a signal is set")
	}
}
