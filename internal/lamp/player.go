// Package lamp maps detected game events to visual effects on the device:
// solid turn colors, move flashes, check and time-pressure blinks, the
// abandonment dim, and state capture/restore around a game's lifetime.
package lamp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/colorutil"
	"github.com/kapu/chess-lamp-go/internal/config"
	"github.com/kapu/chess-lamp-go/internal/detect"
	"github.com/kapu/chess-lamp-go/internal/device"
	"github.com/kapu/chess-lamp-go/internal/lichess"
)

type Player struct {
	dev device.Client
	fx  config.Effects
	log *zap.Logger

	// One blink/flash sequence at a time; concurrent requests are dropped,
	// never queued.
	blinking atomic.Bool

	myTurn   colorutil.RGB
	opponent colorutil.RGB
	check    colorutil.RGB
	flash    colorutil.RGB
	restore  colorutil.RGB
}

func NewPlayer(dev device.Client, fx config.Effects, log *zap.Logger) (*Player, error) {
	p := &Player{dev: dev, fx: fx, log: log}
	for _, c := range []struct {
		name string
		hex  string
		dst  *colorutil.RGB
	}{
		{"my_turn_color", fx.MyTurnColor, &p.myTurn},
		{"opponent_color", fx.OpponentColor, &p.opponent},
		{"check_color", fx.CheckColor, &p.check},
		{"move_flash_color", fx.MoveFlashColor, &p.flash},
		{"restore_color", fx.RestoreColor, &p.restore},
	} {
		rgb, err := colorutil.HexToRGB(c.hex)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		*c.dst = rgb
	}
	return p, nil
}

func (p *Player) turnSpec(mine bool) (colorutil.RGB, int) {
	if mine {
		return p.myTurn, p.fx.MyTurnBrightness
	}
	return p.opponent, p.fx.OpponentBrightness
}

// SetTurn writes the solid turn color. Called on transitions and as the final
// state after any blink sequence.
func (p *Player) SetTurn(ctx context.Context, mine bool) {
	c, bri := p.turnSpec(mine)
	if !p.dev.SetColor(ctx, c, bri) {
		p.log.Warn("turn color write failed", zap.Bool("myTurn", mine))
	}
}

// CheckAlert signals a check against the tracked user: either a blink
// sequence returning to the turn color, or holding the check color until the
// caller observes the check cleared (hold policy).
func (p *Player) CheckAlert(ctx context.Context, mine bool) {
	if p.fx.CheckHold {
		p.dev.SetColor(ctx, p.check, p.fx.CheckBrightness)
		return
	}
	turnColor, turnBri := p.turnSpec(mine)
	p.blink(ctx, p.check, p.fx.CheckBrightness, p.fx.CheckBlinkCount, turnColor, turnBri)
}

// ClearCheckHold reverts the held check color once the check resolves.
func (p *Player) ClearCheckHold(ctx context.Context, mine bool) {
	if p.fx.CheckHold {
		p.SetTurn(ctx, mine)
	}
}

// TimePressure blinks for a newly entered severity level. Critical blinks
// harder than warning.
func (p *Player) TimePressure(ctx context.Context, level detect.Pressure, mine bool) {
	times := 2
	if level == detect.PressureCritical {
		times = 4
	}
	turnColor, turnBri := p.turnSpec(mine)
	p.blink(ctx, p.check, p.fx.CheckBrightness, times, turnColor, turnBri)
}

// MoveFlash flashes the notification color once per new move, capped at 3 so
// a reconnect burst does not flood the lamp, then settles on the turn color
// recomputed from move parity.
func (p *Player) MoveFlash(ctx context.Context, delta, newCount int, myColor string) {
	if delta <= 0 {
		return
	}
	if !p.blinking.CompareAndSwap(false, true) {
		p.log.Debug("move flash dropped: effect already in progress")
		return
	}
	defer p.blinking.Store(false)

	times := delta
	if times > 3 {
		times = 3
	}
	mine := turnFromParity(newCount, myColor)
	turnColor, turnBri := p.turnSpec(mine)
	for i := 0; i < times; i++ {
		p.dev.SetColor(ctx, p.flash, p.fx.MoveFlashBrightness)
		if !sleepCtx(ctx, p.fx.MoveFlashInterval) {
			return
		}
		p.dev.SetColor(ctx, turnColor, turnBri)
		if i < times-1 && !sleepCtx(ctx, p.fx.MoveFlashInterval) {
			return
		}
	}
}

// DimForAbandonment halves the current turn brightness, floor 1%. The caller
// guards the one-shot.
func (p *Player) DimForAbandonment(ctx context.Context, mine bool) {
	c, bri := p.turnSpec(mine)
	half := bri / 2
	if half < 1 {
		half = 1
	}
	p.log.Info("opponent left, dimming lamp", zap.Int("brightness", half))
	p.dev.SetColor(ctx, c, half)
}

// CaptureState starts a best-effort background query of the current lamp
// state. The result arrives on the returned channel (nil when unknown); the
// session loop polls it without blocking.
func (p *Player) CaptureState(ctx context.Context) <-chan *device.LampState {
	ch := make(chan *device.LampState, 1)
	go func() {
		ch <- p.dev.QueryState(ctx)
		close(ch)
	}()
	return ch
}

// Restore puts the lamp back to the captured pre-game state, or to the
// configured restore defaults when no state was captured. Failures are
// logged; the lamp stays in its last written state.
func (p *Player) Restore(ctx context.Context, saved *device.LampState) {
	if saved == nil {
		p.log.Info("no captured state, restoring defaults",
			zap.String("color", p.fx.RestoreColor), zap.Int("brightness", p.fx.RestoreBrightness))
		if !p.dev.SetColor(ctx, p.restore, p.fx.RestoreBrightness) {
			p.log.Warn("default restore failed, leaving lamp as-is")
		}
		return
	}

	if !saved.On {
		if !p.dev.TurnOn(ctx, false) {
			p.log.Warn("restore power-off failed")
		}
		return
	}
	if saved.Scene != "" {
		if p.dev.SetScene(ctx, saved.Scene) {
			p.log.Info("restored lamp scene", zap.String("scene", saved.Scene))
			return
		}
		p.log.Warn("scene restore failed, falling back to color", zap.String("scene", saved.Scene))
	}

	bri := saved.Brightness
	if bri <= 0 {
		bri = p.fx.RestoreBrightness
	}
	c := p.restore
	if saved.Color != nil {
		c = *saved.Color
	}
	if !p.dev.SetColor(ctx, c, bri) {
		p.log.Warn("restore failed, leaving lamp as-is")
	}
}

// blink alternates the effect color with the resting turn color, ending on
// the turn color. Dropped when another sequence is running.
func (p *Player) blink(ctx context.Context, c colorutil.RGB, bri, times int, restColor colorutil.RGB, restBri int) {
	if !p.blinking.CompareAndSwap(false, true) {
		p.log.Debug("blink dropped: effect already in progress")
		return
	}
	defer p.blinking.Store(false)

	for i := 0; i < times; i++ {
		p.dev.SetColor(ctx, c, bri)
		if !sleepCtx(ctx, p.fx.BlinkInterval) {
			return
		}
		p.dev.SetColor(ctx, restColor, restBri)
		if i < times-1 && !sleepCtx(ctx, p.fx.BlinkInterval) {
			return
		}
	}
}

// turnFromParity reports whether the tracked side is to move after count
// plies: even counts put white to move.
func turnFromParity(count int, myColor string) bool {
	whiteToMove := count%2 == 0
	if myColor == lichess.Black {
		return !whiteToMove
	}
	return whiteToMove
}

// sleepCtx sleeps for d, returning false when the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
