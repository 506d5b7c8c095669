package lichess

import "strings"

// Chess sides as the server spells them.
const (
	White = "white"
	Black = "black"
)

// Opposite returns the other side.
func Opposite(color string) string {
	if color == White {
		return Black
	}
	return White
}

// Snapshot is one polled view of a game. It wraps the raw decoded JSON and
// exposes typed accessors; it is produced fresh each poll and never mutated.
type Snapshot struct {
	raw map[string]any
}

// NewSnapshot wraps a decoded game object.
func NewSnapshot(raw map[string]any) Snapshot {
	return Snapshot{raw: raw}
}

// ID returns the game identifier, whichever key carries it.
func (s Snapshot) ID() string {
	for _, key := range []string{"gameId", "id", "fullId"} {
		if v, ok := digString(s.raw, key); ok && v != "" {
			return v
		}
	}
	return ""
}

// Status returns the game status name ("started", "mate", ...). The field is
// either a bare string or an object with a "name" key.
func (s Snapshot) Status() string {
	if v, ok := digString(s.raw, "status"); ok {
		return v
	}
	if v, ok := digString(s.raw, "status", "name"); ok {
		return v
	}
	if v, ok := digString(s.raw, "state", "status"); ok {
		return v
	}
	return ""
}

// Winner returns the winning side ("white"/"black") or winner name if the
// game is decided, else "".
func (s Snapshot) Winner() string {
	if v, ok := digString(s.raw, "winner"); ok {
		return v
	}
	if v, ok := digString(s.raw, "winner", "name"); ok {
		return v
	}
	if v, ok := digString(s.raw, "state", "winner"); ok {
		return v
	}
	return ""
}

// ColorField returns the server-assigned side of the tracked user, if present.
func (s Snapshot) ColorField() string {
	v, _ := digString(s.raw, "color")
	return strings.ToLower(v)
}

// TurnFlag returns the server's is-my-turn flag and whether the payload
// carried it at all. Absence matters: the parity fallback only fires then.
func (s Snapshot) TurnFlag() (value, present bool) {
	if v, ok := digBool(s.raw, "isMyTurn"); ok {
		return v, true
	}
	return false, false
}

// Moves returns the whitespace-separated move list, possibly empty.
func (s Snapshot) Moves() string {
	if v, ok := digString(s.raw, "moves"); ok {
		return v
	}
	if v, ok := digString(s.raw, "state", "moves"); ok {
		return v
	}
	return ""
}

// PlayerName returns the name of the player on the given side across the
// shapes the server has been seen to use.
func (s Snapshot) PlayerName(color string) string {
	if v, ok := digString(s.raw, color, "name"); ok {
		return v
	}
	if v, ok := digString(s.raw, color); ok {
		return v
	}
	if v, ok := digString(s.raw, "players", color, "user", "name"); ok {
		return v
	}
	if v, ok := digString(s.raw, "players", color, "name"); ok {
		return v
	}
	return ""
}

// SecondsLeft returns remaining clock time in seconds for the given side.
// ok is false when no recognized shape carries it.
func (s Snapshot) SecondsLeft(color string) (float64, bool) {
	// The ongoing-games feed reports the tracked user's clock directly.
	if v, ok := digFloat(s.raw, "secondsLeft"); ok {
		return v, true
	}
	if v, ok := digFloat(s.raw, "clock", color); ok {
		return v, true
	}
	// Board-style state carries wtime/btime in milliseconds.
	msKey := "wtime"
	if color == Black {
		msKey = "btime"
	}
	if v, ok := digFloat(s.raw, "state", msKey); ok {
		return v / 1000, true
	}
	if v, ok := digFloat(s.raw, "players", color, "clock"); ok {
		return v, true
	}
	return 0, false
}

// InCheck reports whether the given side is in check, trying the known
// indicator shapes in order. Unrecognized shapes read as false.
func (s Snapshot) InCheck(color string) bool {
	if v, ok := digBool(s.raw, "isCheck"); ok {
		return v
	}
	if v, ok := digBool(s.raw, "check"); ok {
		return v
	}
	if v, ok := digString(s.raw, "check"); ok {
		v = strings.ToLower(strings.TrimSpace(v))
		return v == "+" || v == "true" || v == color
	}
	if v, ok := digBool(s.raw, "state", "check"); ok {
		return v
	}
	return false
}

// OpponentOnline reports the opponent's connectivity flag. present is false
// when the payload has no such flag; callers must not read absence as
// disconnection.
func (s Snapshot) OpponentOnline(myColor string) (online, present bool) {
	for _, key := range []string{"online", "connected"} {
		if v, ok := digBool(s.raw, "opponent", key); ok {
			return v, true
		}
	}
	opp := Opposite(myColor)
	for _, key := range []string{"connected", "online"} {
		if v, ok := digBool(s.raw, "players", opp, key); ok {
			return v, true
		}
	}
	return false, false
}
