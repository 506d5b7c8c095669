package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/chess-lamp-go/internal/config"
	"github.com/kapu/chess-lamp-go/internal/detect"
	"github.com/kapu/chess-lamp-go/internal/lamp"
	"github.com/kapu/chess-lamp-go/internal/lichess"
)

// GameSource feeds the loop with the account's in-progress games.
type GameSource interface {
	Ongoing(ctx context.Context) ([]lichess.Snapshot, error)
	Username(ctx context.Context) (string, error)
}

const (
	defaultRateLimitBackoff = 5 * time.Second
	defaultErrorBackoff     = time.Second
)

// Loop polls the game source and drives the lamp. Idle until a game with a
// new id appears, then active at a faster cadence until the game ends or
// disappears from the ongoing list.
type Loop struct {
	src    GameSource
	player *lamp.Player
	log    *zap.Logger

	idleInterval     time.Duration
	activeInterval   time.Duration
	rateLimitBackoff time.Duration
	errorBackoff     time.Duration
	fx               config.Effects

	st         state
	lastGameID string
}

// Option configures a Loop.
type Option func(*Loop)

// WithBackoffs overrides the post-error sleep durations.
func WithBackoffs(rateLimited, other time.Duration) Option {
	return func(l *Loop) {
		l.rateLimitBackoff = rateLimited
		l.errorBackoff = other
	}
}

func NewLoop(src GameSource, player *lamp.Player, cfg *config.AppConfig, log *zap.Logger, opts ...Option) *Loop {
	l := &Loop{
		src:              src,
		player:           player,
		log:              log,
		idleInterval:     cfg.IdlePollInterval,
		activeInterval:   cfg.ActivePollInterval,
		rateLimitBackoff: defaultRateLimitBackoff,
		errorBackoff:     defaultErrorBackoff,
		fx:               cfg.Effects,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run polls until ctx is canceled. Returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("watching for games")
	for ctx.Err() == nil {
		snaps, err := l.src.Ongoing(ctx)
		if err != nil {
			l.backoff(ctx, err)
			continue
		}
		if len(snaps) > 0 && snaps[0].ID() != "" && snaps[0].ID() != l.lastGameID {
			l.runGame(ctx, snaps[0])
			continue
		}
		sleepCtx(ctx, l.idleInterval)
	}
	return ctx.Err()
}

func (l *Loop) runGame(ctx context.Context, first lichess.Snapshot) {
	st := &l.st
	st.reset()
	st.gameID = first.ID()
	st.sessionID = uuid.NewString()
	l.lastGameID = st.gameID

	log := l.log.With(zap.String("game_id", st.gameID), zap.String("session_id", st.sessionID))

	username, err := l.src.Username(ctx)
	if err != nil {
		log.Warn("account lookup failed", zap.Error(err))
	}
	color, ok := detect.ResolveColor(first, username)
	if !ok {
		color = lichess.White
		log.Warn("could not determine color, assuming white")
	}
	st.myColor = color

	st.capture = l.player.CaptureState(ctx)

	mine := detect.MyTurn(first, color)
	st.onTurnChange(mine)
	st.lastMoveCount = detect.MoveCount(first)
	l.player.SetTurn(ctx, mine)

	log.Info("game started",
		zap.String("color", color),
		zap.Bool("my_turn", mine),
		zap.Int("moves", st.lastMoveCount))

	for ctx.Err() == nil {
		if !sleepCtx(ctx, l.activeInterval) {
			return
		}
		snaps, err := l.src.Ongoing(ctx)
		if err != nil {
			l.backoff(ctx, err)
			continue
		}
		cur := findByID(snaps, st.gameID)
		if cur == nil {
			log.Info("game no longer listed")
			l.finish(ctx, st, log)
			return
		}
		if l.tick(ctx, st, *cur, log) {
			l.finish(ctx, st, log)
			return
		}
	}
}

// tick applies one snapshot to the lamp. Returns true when the game reached
// a terminal status.
func (l *Loop) tick(ctx context.Context, st *state, snap lichess.Snapshot, log *zap.Logger) bool {
	mine := detect.MyTurn(snap, st.myColor)

	if !st.abandonHandled && detect.Abandoned(snap, st.myColor) {
		st.abandonHandled = true
		log.Info("opponent appears gone, dimming")
		l.player.DimForAbandonment(ctx, mine)
	}

	if status := snap.Status(); detect.Terminal(status) {
		log.Info("game over", zap.String("status", status), zap.String("winner", snap.Winner()))
		return true
	}

	if !st.turnKnown || st.lastTurnMine != mine {
		st.onTurnChange(mine)
		l.player.SetTurn(ctx, mine)
	}

	if l.fx.TimePressureEnabled && mine {
		if remaining, ok := detect.TimeRemaining(snap, st.myColor); ok {
			level := detect.ClassifyTimePressure(remaining, l.fx.WarnSeconds, l.fx.CriticalSeconds)
			switch {
			case level == detect.PressureNone:
				st.pressureSignaled = detect.PressureNone
			case level > st.pressureSignaled:
				st.pressureSignaled = level
				log.Info("time pressure", zap.String("level", level.String()), zap.Float64("seconds_left", remaining))
				l.player.TimePressure(ctx, level, mine)
			}
		}
	}

	if l.fx.CheckEnabled && mine {
		inCheck := detect.InCheck(snap, st.myColor)
		if inCheck && !st.checkSignaled {
			st.checkSignaled = true
			l.player.CheckAlert(ctx, mine)
		} else if !inCheck && st.checkSignaled {
			st.checkSignaled = false
			l.player.ClearCheckHold(ctx, mine)
		}
	}

	if l.fx.MoveFlashEnabled {
		if count := detect.MoveCount(snap); count > st.lastMoveCount {
			l.player.MoveFlash(ctx, count-st.lastMoveCount, count, st.myColor)
			st.lastMoveCount = count
		}
	}
	return false
}

func (l *Loop) finish(ctx context.Context, st *state, log *zap.Logger) {
	saved := st.capturedState()
	l.player.Restore(ctx, saved)
	log.Info("lamp restored", zap.Bool("from_capture", saved != nil))
	st.reset()
}

func (l *Loop) backoff(ctx context.Context, err error) {
	wait := l.errorBackoff
	if errors.Is(err, lichess.ErrRateLimited) {
		wait = l.rateLimitBackoff
		l.log.Warn("rate limited", zap.Duration("backoff", wait))
	} else {
		l.log.Warn("poll failed", zap.Error(err), zap.Duration("backoff", wait))
	}
	sleepCtx(ctx, wait)
}

func findByID(snaps []lichess.Snapshot, id string) *lichess.Snapshot {
	for i := range snaps {
		if snaps[i].ID() == id {
			return &snaps[i]
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
