package lichess

import (
	"encoding/json"
	"testing"
)

func snap(t *testing.T, body string) Snapshot {
	t.Helper()
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return NewSnapshot(raw)
}

func TestID_Shapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"gameId":"abc123"}`, "abc123"},
		{`{"id":"def456"}`, "def456"},
		{`{"fullId":"ghi789xyz"}`, "ghi789xyz"},
		{`{"gameId":"first","id":"second"}`, "first"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		if got := snap(t, tc.body).ID(); got != tc.want {
			t.Errorf("ID(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestStatus_Shapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"status":"mate"}`, "mate"},
		{`{"status":{"id":30,"name":"resign"}}`, "resign"},
		{`{"state":{"status":"draw"}}`, "draw"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		if got := snap(t, tc.body).Status(); got != tc.want {
			t.Errorf("Status(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestTurnFlag_PresenceMatters(t *testing.T) {
	s := snap(t, `{"isMyTurn":false}`)
	v, present := s.TurnFlag()
	if v || !present {
		t.Errorf("explicit false flag: got value=%v present=%v", v, present)
	}
	s = snap(t, `{"moves":"e4 e5"}`)
	if _, present := s.TurnFlag(); present {
		t.Error("missing flag reported as present")
	}
}

func TestSecondsLeft_Shapes(t *testing.T) {
	cases := []struct {
		body  string
		color string
		want  float64
		ok    bool
	}{
		{`{"secondsLeft":9.5}`, White, 9.5, true},
		{`{"clock":{"white":120,"black":90}}`, Black, 90, true},
		{`{"state":{"wtime":65000,"btime":30500}}`, Black, 30.5, true},
		{`{"players":{"white":{"clock":42}}}`, White, 42, true},
		{`{"moves":"e4"}`, White, 0, false},
	}
	for _, tc := range cases {
		got, ok := snap(t, tc.body).SecondsLeft(tc.color)
		if ok != tc.ok || got != tc.want {
			t.Errorf("SecondsLeft(%s, %s) = (%v, %v), want (%v, %v)",
				tc.body, tc.color, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInCheck_Shapes(t *testing.T) {
	cases := []struct {
		body  string
		color string
		want  bool
	}{
		{`{"isCheck":true}`, White, true},
		{`{"check":true}`, White, true},
		{`{"check":"+"}`, White, true},
		{`{"check":"black"}`, Black, true},
		{`{"check":"black"}`, White, false},
		{`{"state":{"check":true}}`, White, true},
		{`{"check":{"weird":1}}`, White, false},
		{`{}`, White, false},
	}
	for _, tc := range cases {
		if got := snap(t, tc.body).InCheck(tc.color); got != tc.want {
			t.Errorf("InCheck(%s, %s) = %v, want %v", tc.body, tc.color, got, tc.want)
		}
	}
}

func TestPlayerName_Shapes(t *testing.T) {
	cases := []struct {
		body  string
		color string
		want  string
	}{
		{`{"white":{"name":"Alice"}}`, White, "Alice"},
		{`{"black":"Bob"}`, Black, "Bob"},
		{`{"players":{"white":{"user":{"name":"Carol"}}}}`, White, "Carol"},
		{`{"players":{"black":{"name":"Dave"}}}`, Black, "Dave"},
		{`{}`, White, ""},
	}
	for _, tc := range cases {
		if got := snap(t, tc.body).PlayerName(tc.color); got != tc.want {
			t.Errorf("PlayerName(%s, %s) = %q, want %q", tc.body, tc.color, got, tc.want)
		}
	}
}

func TestOpponentOnline(t *testing.T) {
	s := snap(t, `{"opponent":{"online":false}}`)
	if online, present := s.OpponentOnline(White); online || !present {
		t.Errorf("opponent.online=false read as (%v,%v)", online, present)
	}
	s = snap(t, `{"players":{"black":{"connected":true}}}`)
	if online, present := s.OpponentOnline(White); !online || !present {
		t.Errorf("players.black.connected=true read as (%v,%v)", online, present)
	}
	s = snap(t, `{"opponent":{"id":"x"}}`)
	if _, present := s.OpponentOnline(White); present {
		t.Error("absent connectivity flag reported as present")
	}
}
