package api

import (
	"sync"
)

// ErrSuperseded is returned when a newer request from the same client
// arrived while this one was in flight. The client should drop the
// response instead of rendering a stale page.
var ErrSuperseded = NewError(-32009, "superseded by newer request")

// SequenceGate tracks the highest request sequence number seen per
// client, so feed responses that raced a newer request can be
// discarded at the edge instead of flashing stale pages.
type SequenceGate struct {
	mu     sync.Mutex
	latest map[string]int64
}

// NewSequenceGate creates a new sequence gate
func NewSequenceGate() *SequenceGate {
	return &SequenceGate{latest: make(map[string]int64)}
}

// Begin records the sequence for a client. Sequences are strictly
// monotonic per client: a request that is not newer than one previously
// seen, including a replay of the same sequence, returns false.
func (g *SequenceGate) Begin(clientID string, seq int64) bool {
	if clientID == "" || seq <= 0 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq <= g.latest[clientID] {
		return false
	}
	g.latest[clientID] = seq
	return true
}

// Current reports whether the sequence is still the newest for the
// client. Checked after the query runs; a request superseded mid-flight
// returns ErrSuperseded rather than a stale result.
func (g *SequenceGate) Current(clientID string, seq int64) bool {
	if clientID == "" || seq <= 0 {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[clientID] == seq
}
