// Package detect derives game facts from polled snapshots. Every function is
// pure: snapshot plus the tracked side in, fact out. The session loop owns all
// mutable state.
package detect

import (
	"strings"

	"github.com/kapu/chess-lamp-go/internal/lichess"
)

// Statuses that end a game and send the loop back to idle.
var terminalStatuses = map[string]struct{}{
	"mate":      {},
	"resign":    {},
	"draw":      {},
	"stalemate": {},
	"timeout":   {},
	"outoftime": {},
	"cheat":     {},
	"abandoned": {},
}

// Terminal reports whether the status name ends the game.
func Terminal(status string) bool {
	_, ok := terminalStatuses[strings.ToLower(status)]
	return ok
}

// MoveCount counts whitespace-separated move tokens.
func MoveCount(s lichess.Snapshot) int {
	return len(strings.Fields(s.Moves()))
}

// MyTurn reports whether the tracked user is to move. The server flag is
// authoritative; move parity against the tracked side is consulted only when
// the payload carries no flag at all.
func MyTurn(s lichess.Snapshot, myColor string) bool {
	if v, present := s.TurnFlag(); present {
		return v
	}
	whiteToMove := MoveCount(s)%2 == 0
	if myColor == lichess.Black {
		return !whiteToMove
	}
	return whiteToMove
}

// ResolveColor determines which side the tracked user plays: the explicit
// server assignment when present, otherwise a case-insensitive match of the
// username against the per-side player names.
func ResolveColor(s lichess.Snapshot, username string) (string, bool) {
	if c := s.ColorField(); c == lichess.White || c == lichess.Black {
		return c, true
	}
	username = strings.ToLower(username)
	if username == "" {
		return "", false
	}
	for _, color := range []string{lichess.White, lichess.Black} {
		if strings.ToLower(s.PlayerName(color)) == username {
			return color, true
		}
	}
	return "", false
}

// InCheck reports whether the tracked side is in check.
func InCheck(s lichess.Snapshot, myColor string) bool {
	return s.InCheck(myColor)
}

// TimeRemaining returns the tracked side's remaining clock seconds; ok is
// false when no recognized shape carries it.
func TimeRemaining(s lichess.Snapshot, myColor string) (float64, bool) {
	return s.SecondsLeft(myColor)
}

// Abandoned reports whether the opponent has left the game: a clock-loss
// terminal status decided in the tracked user's favor, an explicit abandoned
// status, or the opponent flagged offline while it is their move.
func Abandoned(s lichess.Snapshot, myColor string) bool {
	status := strings.ToLower(s.Status())
	switch status {
	case "abandoned":
		return true
	case "timeout", "outoftime":
		winner := strings.ToLower(s.Winner())
		if winner == myColor {
			return true
		}
		// Winner may be a username rather than a side.
		if winner != "" && winner == strings.ToLower(s.PlayerName(myColor)) {
			return true
		}
	}
	if online, present := s.OpponentOnline(myColor); present && !online {
		if !MyTurn(s, myColor) {
			return true
		}
	}
	return false
}

// Pressure classifies remaining clock time.
type Pressure int

const (
	PressureNone Pressure = iota
	PressureWarning
	PressureCritical
)

func (p Pressure) String() string {
	switch p {
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "none"
	}
}

// ClassifyTimePressure buckets remaining seconds against the two thresholds.
// Critical is checked first since criticalSec <= warnSec.
func ClassifyTimePressure(remaining, warnSec, criticalSec float64) Pressure {
	if remaining <= criticalSec {
		return PressureCritical
	}
	if remaining <= warnSec {
		return PressureWarning
	}
	return PressureNone
}
