// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"container/heap"
	"context"

	"github.com/mindmesh/synthroute/internal/executor"
	"github.com/mindmesh/synthroute/internal/routing"
)

// waiting is one queued entry plus its result plumbing. The caller's
// context rides along so the drain worker executes under the caller's
// deadline rather than the controller's.
type waiting struct {
	entry    executor.Entry
	ctx      context.Context
	resultCh chan routing.Result
	seq      uint64
	index    int
}

// entryHeap orders waiting entries by (tier, arrival time), with a
// monotonic sequence number as the final tie-breaker so ordering is
// total even for identical timestamps.
type entryHeap []*waiting

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].entry.Decision.Tier != h[j].entry.Decision.Tier {
		return h[i].entry.Decision.Tier < h[j].entry.Decision.Tier
	}
	if !h[i].entry.Request.ArrivalTime.Equal(h[j].entry.Request.ArrivalTime) {
		return h[i].entry.Request.ArrivalTime.Before(h[j].entry.Request.ArrivalTime)
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	w := x.(*waiting)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*h = old[:n-1]
	return w
}

var _ heap.Interface = (*entryHeap)(nil)
