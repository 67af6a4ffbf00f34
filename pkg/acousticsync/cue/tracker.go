// Package cue tracks host-registered timeline positions and reports each
// one once the believed playback position reaches it.
package cue

import (
	"sort"
	"sync"
)

// Cue is a named position on the reference timeline.
type Cue struct {
	ID        string
	AtSeconds float64
}

// Tracker remembers which cues have fired.
type Tracker struct {
	mu    sync.Mutex
	cues  []Cue // sorted by AtSeconds, then ID
	fired map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{fired: make(map[string]bool)}
}

// Register adds cues. Re-registering an ID replaces its position and
// clears its fired flag.
func (t *Tracker) Register(cues ...Cue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range cues {
		replaced := false
		for i := range t.cues {
			if t.cues[i].ID == c.ID {
				t.cues[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			t.cues = append(t.cues, c)
		}
		delete(t.fired, c.ID)
	}
	sort.SliceStable(t.cues, func(i, j int) bool {
		if t.cues[i].AtSeconds == t.cues[j].AtSeconds {
			return t.cues[i].ID < t.cues[j].ID
		}
		return t.cues[i].AtSeconds < t.cues[j].AtSeconds
	})
}

// Due marks and returns every unfired cue at or before timelineSeconds.
func (t *Tracker) Due(timelineSeconds float64) []Cue {
	t.mu.Lock()
	defer t.mu.Unlock()

	var due []Cue
	for _, c := range t.cues {
		if c.AtSeconds > timelineSeconds {
			break
		}
		if t.fired[c.ID] {
			continue
		}
		t.fired[c.ID] = true
		due = append(due, c)
	}
	return due
}

// Rewind un-fires every cue after timelineSeconds so it can fire again.
func (t *Tracker) Rewind(timelineSeconds float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, c := range t.cues {
		if c.AtSeconds > timelineSeconds && t.fired[c.ID] {
			delete(t.fired, c.ID)
			n++
		}
	}
	return n
}

// Reset un-fires every cue.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fired = make(map[string]bool)
}

// Len returns the number of registered cues.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cues)
}
