package session

import (
	"github.com/kapu/chess-lamp-go/internal/detect"
	"github.com/kapu/chess-lamp-go/internal/device"
)

// state is the single mutable record of the game being tracked. Populated on
// game entry, zeroed on exit; the signaled flags implement the "notify once"
// rules and reset together with the turn they were signaled on.
type state struct {
	gameID    string
	sessionID string
	myColor   string

	turnKnown    bool
	lastTurnMine bool

	lastMoveCount    int
	checkSignaled    bool
	pressureSignaled detect.Pressure
	abandonHandled   bool

	capture <-chan *device.LampState
}

func (s *state) reset() {
	*s = state{}
}

// onTurnChange clears the per-turn signal memories.
func (s *state) onTurnChange(mine bool) {
	s.turnKnown = true
	s.lastTurnMine = mine
	s.checkSignaled = false
	s.pressureSignaled = detect.PressureNone
}

// capturedState drains the background capture result without blocking.
// nil means the capture has not finished or found nothing.
func (s *state) capturedState() *device.LampState {
	select {
	case saved, ok := <-s.capture:
		if ok {
			return saved
		}
	default:
	}
	return nil
}
