// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package executor

import (
	"github.com/mindmesh/synthroute/internal/strategy"
)

// Category is the coarse request category used for backup selection.
type Category string

const (
	CategoryAnalytical Category = "analytical"
	CategoryCreative   Category = "creative"
	CategoryOther      Category = "other"
)

// CategoryOf derives the backup-selection category from the synthesis
// type recorded on the routing decision.
func CategoryOf(synthesisType string) Category {
	switch synthesisType {
	case "analytical", "metric-balance":
		return CategoryAnalytical
	case "creative", "metric-creativity":
		return CategoryCreative
	default:
		return CategoryOther
	}
}

// AffinityTable maps (primary backend, request category) to exactly one
// backup backend. The table is static: built once from the configured
// backend roles and never mutated.
type AffinityTable struct {
	backends strategy.Backends
}

// NewAffinityTable builds the table for the configured backend roles.
func NewAffinityTable(backends strategy.Backends) *AffinityTable {
	if backends.Precision == "" {
		backends = strategy.DefaultBackends()
	}
	return &AffinityTable{backends: backends}
}

// Backup returns the single backup backend for a failed primary. Every
// (primary, category) pairing resolves to a backend different from the
// primary; an unrecognized primary falls back to the high-capacity role.
func (t *AffinityTable) Backup(primary string, category Category) string {
	b := t.backends
	switch primary {
	case b.Precision:
		if category == CategoryCreative {
			return b.Creative
		}
		return b.HighCapacity
	case b.Creative:
		if category == CategoryAnalytical {
			return b.Precision
		}
		return b.HighCapacity
	case b.HighCapacity:
		if category == CategoryAnalytical {
			return b.Precision
		}
		return b.Creative
	default:
		return b.HighCapacity
	}
}
