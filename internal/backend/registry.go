// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package backend

import (
	"fmt"
	"sort"
)

// Registry holds the fixed set of configured backend clients. The set
// is built once at startup and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	clients map[string]Client
}

// NewRegistry builds a registry from the given clients. Duplicate
// names are rejected.
func NewRegistry(clients ...Client) (*Registry, error) {
	m := make(map[string]Client, len(clients))
	for _, c := range clients {
		if c.Name() == "" {
			return nil, fmt.Errorf("backend client with empty name")
		}
		if _, exists := m[c.Name()]; exists {
			return nil, fmt.Errorf("duplicate backend name %q", c.Name())
		}
		m[c.Name()] = c
	}
	return &Registry{clients: m}, nil
}

// Get returns the client for a backend name.
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Names returns all registered backend names, sorted for determinism.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
