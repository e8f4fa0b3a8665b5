// Package moveslot implements the single-entry mailbox between the
// interpreter and the downstream motion planner. It is grounded on the
// same single-producer/single-consumer handoff shape the teacher uses
// between GCodeMove and the toolhead/kinematics queue (project/toolhead.go,
// project/extras_gcode_move.go upstream): one move waits in the slot until
// the planner drains it, and the producer must poll rather than block.
package moveslot

import "sync"

// Move is one coordinated motion request: an absolute target position per
// axis/extruder plus the feedrate and options that go with it.
type Move struct {
	Target      []float64 // absolute target position, axis order then extruders
	Feedrate    float64   // mm/min
	EndstopMove bool       // true for homing moves that stop early on endstop trigger
	Seen        []bool     // which axes in Target actually moved
}

// Slot is a single-entry mailbox. Put fails while a previous move is still
// pending so the producer can retry instead of silently overwriting it.
type Slot struct {
	mu      sync.Mutex
	move    Move
	pending bool
}

// New returns an empty, non-pending Slot.
func New() *Slot {
	return &Slot{}
}

// TryPut publishes m into the slot. It returns false without modifying the
// slot if a previous move has not yet been taken by the planner.
func (s *Slot) TryPut(m Move) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return false
	}
	s.move = m
	s.pending = true
	return true
}

// Pending reports whether a move is currently waiting to be taken.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Take removes and returns the pending move, if any. Called by the
// planner side of the handoff.
func (s *Slot) Take() (Move, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return Move{}, false
	}
	m := s.move
	s.pending = false
	return m, true
}
