// Package inflight tracks per-operation request state so a second identical
// request (double click, client retry) is refused while the first is running.
// The database compare-and-swap remains the authority; this only answers fast.
package inflight

import (
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

type entry struct {
	state State
	at    time.Time
}

type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns a tracker that forgets finished operations after ttl.
func New(ttl time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Begin moves key to InFlight. It returns false if key is already in flight.
func (t *Tracker) Begin(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	if e, ok := t.entries[key]; ok && e.state == InFlight {
		return false
	}
	t.entries[key] = entry{state: InFlight, at: t.now()}
	return true
}

// Finish records the outcome of the operation started by Begin.
func (t *Tracker) Finish(key string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Succeeded
	if err != nil {
		st = Failed
	}
	t.entries[key] = entry{state: st, at: t.now()}
}

func (t *Tracker) State(key string) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return Idle
	}
	if e.state != InFlight && t.ttl > 0 && t.now().Sub(e.at) > t.ttl {
		return Idle
	}
	return e.state
}

func (t *Tracker) pruneLocked() {
	if t.ttl <= 0 {
		return
	}
	now := t.now()
	for k, e := range t.entries {
		if e.state != InFlight && now.Sub(e.at) > t.ttl {
			delete(t.entries, k)
		}
	}
}
