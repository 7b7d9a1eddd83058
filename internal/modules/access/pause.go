package access

import (
	"sync/atomic"

	"github.com/tokenfund/rebalancer/internal/events"
)

// PauseSwitch is an in-process pause flag. Pausing halts every mutation and
// rebalance trigger until resumed.
type PauseSwitch struct {
	paused atomic.Bool
	events *events.Manager
}

// NewPauseSwitch creates a pause switch in the given initial state.
func NewPauseSwitch(startPaused bool, ev *events.Manager) *PauseSwitch {
	s := &PauseSwitch{events: ev}
	s.paused.Store(startPaused)
	return s
}

// IsPaused reports whether the engine is halted.
func (s *PauseSwitch) IsPaused() bool {
	return s.paused.Load()
}

// Pause halts the engine.
func (s *PauseSwitch) Pause() {
	if s.paused.CompareAndSwap(false, true) && s.events != nil {
		s.events.Emit(events.SystemPaused, "", "", nil)
	}
}

// Resume lifts the halt.
func (s *PauseSwitch) Resume() {
	if s.paused.CompareAndSwap(true, false) && s.events != nil {
		s.events.Emit(events.SystemResumed, "", "", nil)
	}
}
