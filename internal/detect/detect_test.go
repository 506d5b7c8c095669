package detect

import (
	"encoding/json"
	"testing"

	"github.com/kapu/chess-lamp-go/internal/lichess"
)

func snap(t *testing.T, body string) lichess.Snapshot {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return lichess.NewSnapshot(raw)
}

func TestMyTurn_FlagAuthoritative(t *testing.T) {
	// Parity would say white to move, but the flag wins.
	s := snap(t, `{"isMyTurn":false,"moves":"e4 e5 Nf3 Nc6"}`)
	if MyTurn(s, lichess.White) {
		t.Error("server flag false overridden by parity")
	}
}

func TestMyTurn_ParityFallback(t *testing.T) {
	// 4 tokens -> white to move -> black is not to move.
	s := snap(t, `{"moves":"e4 e5 Nf3 Nc6"}`)
	if MyTurn(s, lichess.Black) {
		t.Error("parity fallback: black reported to move after 4 plies")
	}
	if !MyTurn(s, lichess.White) {
		t.Error("parity fallback: white should be to move after 4 plies")
	}
	// Empty move list: white to move.
	s = snap(t, `{}`)
	if !MyTurn(s, lichess.White) || MyTurn(s, lichess.Black) {
		t.Error("parity fallback wrong on empty move list")
	}
}

func TestMoveCount(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{`{"moves":"e4 e5 Nf3"}`, 3},
		{`{"moves":""}`, 0},
		{`{}`, 0},
		{`{"state":{"moves":"e2e4 e7e5"}}`, 2},
	}
	for _, tc := range cases {
		if got := MoveCount(snap(t, tc.body)); got != tc.want {
			t.Errorf("MoveCount(%s) = %d, want %d", tc.body, got, tc.want)
		}
	}
}

func TestResolveColor(t *testing.T) {
	s := snap(t, `{"color":"Black"}`)
	if c, ok := ResolveColor(s, "whoever"); !ok || c != lichess.Black {
		t.Errorf("explicit assignment: got (%q, %v)", c, ok)
	}

	s = snap(t, `{"players":{"white":{"user":{"name":"Alice"}},"black":{"user":{"name":"Bob"}}}}`)
	if c, ok := ResolveColor(s, "ALICE"); !ok || c != lichess.White {
		t.Errorf("name match: got (%q, %v)", c, ok)
	}
	if _, ok := ResolveColor(s, "mallory"); ok {
		t.Error("unknown username resolved a color")
	}
}

func TestClassifyTimePressure(t *testing.T) {
	cases := []struct {
		remaining float64
		want      Pressure
	}{
		{9.5, PressureCritical},
		{10, PressureCritical},
		{10.1, PressureWarning},
		{30, PressureWarning},
		{35, PressureNone},
	}
	for _, tc := range cases {
		if got := ClassifyTimePressure(tc.remaining, 30, 10); got != tc.want {
			t.Errorf("ClassifyTimePressure(%v) = %v, want %v", tc.remaining, got, tc.want)
		}
	}
}

func TestAbandoned(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		color string
		want  bool
	}{
		{"timeout won by tracked side", `{"status":"timeout","winner":"white"}`, lichess.White, true},
		{"timeout lost by tracked side", `{"status":"timeout","winner":"black"}`, lichess.White, false},
		{"timeout winner by username", `{"status":"outoftime","winner":"Alice","white":{"name":"Alice"}}`, lichess.White, true},
		{"explicit abandoned", `{"status":"abandoned"}`, lichess.Black, true},
		{"opponent offline on their move", `{"isMyTurn":false,"opponent":{"online":false}}`, lichess.White, true},
		{"opponent offline on my move", `{"isMyTurn":true,"opponent":{"online":false}}`, lichess.White, false},
		{"opponent online", `{"isMyTurn":false,"opponent":{"online":true}}`, lichess.White, false},
		{"no connectivity info", `{"isMyTurn":false,"status":"started"}`, lichess.White, false},
	}
	for _, tc := range cases {
		if got := Abandoned(snap(t, tc.body), tc.color); got != tc.want {
			t.Errorf("%s: Abandoned = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []string{"mate", "resign", "draw", "stalemate", "timeout", "outoftime", "cheat", "abandoned", "Mate"} {
		if !Terminal(s) {
			t.Errorf("Terminal(%q) = false", s)
		}
	}
	for _, s := range []string{"started", "created", ""} {
		if Terminal(s) {
			t.Errorf("Terminal(%q) = true", s)
		}
	}
}
