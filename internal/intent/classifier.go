// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intent provides keyword-based intent classification for
// routing decisions. Classification is a total, deterministic function
// over the request text: it never errors and has no side effects.
package intent

import (
	"regexp"
	"strings"
)

// Signals holds the non-exclusive intent flags detected in a request.
// Each flag is computed by an independent membership test, so a single
// request can carry several signals at once.
type Signals struct {
	Analytical    bool `json:"analytical"`
	Creative      bool `json:"creative"`
	Emotional     bool `json:"emotional"`
	Philosophical bool `json:"philosophical"`
}

// Any reports whether at least one signal fired.
func (s Signals) Any() bool {
	return s.Analytical || s.Creative || s.Emotional || s.Philosophical
}

var (
	analyticalKeywords = []string{
		"analyze", "analysis", "compare", "evaluate", "explain",
		"architecture", "performance", "optimize", "debug", "data",
		"calculate", "measure", "structure", "logic",
	}

	creativeKeywords = []string{
		"imagine", "create", "story", "poem", "dream", "invent",
		"design", "art", "song", "metaphor", "creative",
	}

	emotionalKeywords = []string{
		"feel", "feeling", "emotion", "love", "fear", "sad", "happy",
		"lonely", "anxious", "heart", "grief", "joy",
	}

	philosophicalKeywords = []string{
		"consciousness", "existence", "meaning", "purpose", "soul",
		"reality", "truth", "mortality", "free will", "universe",
		"philosophy", "awareness",
	}

	// codePattern catches code-shaped requests that the analytical
	// keyword list misses: identifiers, fenced blocks, file extensions.
	codePattern = regexp.MustCompile("(?i)(```|\\bfunc\\b|\\bclass\\b|\\bdef\\b|\\breturn\\b|\\.go\\b|\\.py\\b|\\.js\\b|\\berror\\b|\\bstack trace\\b|\\brefactor\\b)")
)

// Classifier detects coarse intent categories in request text.
type Classifier struct{}

// NewClassifier creates a classifier. It is stateless and safe for
// concurrent use.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify computes the intent signals for the given text. Empty text
// yields all-false signals.
func (c *Classifier) Classify(text string) Signals {
	if strings.TrimSpace(text) == "" {
		return Signals{}
	}

	lower := strings.ToLower(text)

	return Signals{
		Analytical:    containsAny(lower, analyticalKeywords),
		Creative:      containsAny(lower, creativeKeywords),
		Emotional:     containsAny(lower, emotionalKeywords),
		Philosophical: containsAny(lower, philosophicalKeywords),
	}
}

// IsCodeRelated reports whether the text looks like a programming
// request. Code-shaped work routes with analytical intent even when no
// analytical keyword is present.
func (c *Classifier) IsCodeRelated(text string) bool {
	return codePattern.MatchString(text)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
