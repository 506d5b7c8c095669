package device

import (
	"context"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
)

// LampState is a best-effort snapshot of the physical lamp, captured before a
// game starts and used to restore the lamp afterwards. Color and Scene are
// both optional; a state with neither still carries brightness and power.
type LampState struct {
	On         bool
	Brightness int
	Color      *colorutil.RGB
	Scene      string
}

// Client is the capability surface a lamp backend must provide. Set commands
// are best-effort: a false return means every transport leg failed, not that
// the lamp verifiably missed the command. QueryState returns nil when the
// state cannot be determined; callers treat nil as "unknown", never as an
// error.
type Client interface {
	SetColor(ctx context.Context, c colorutil.RGB, brightness int) bool
	SetScene(ctx context.Context, name string) bool
	TurnOn(ctx context.Context, on bool) bool
	QueryState(ctx context.Context) *LampState
}
