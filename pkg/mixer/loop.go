package mixer

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Prepare runs before every scheduled redraw, typically to refresh layer
// contents. An error skips that redraw.
type Prepare func(ctx context.Context) error

func NewLoop(d *Display, interval time.Duration, logger *zap.Logger) *Loop {
	return &Loop{
		d:         d,
		logger:    logger.With(zap.String("via", "redraw-loop")),
		Interval:  interval,
		ErrorWait: 3 * time.Second,
		wakeup:    make(chan struct{}, 1),
	}
}

// Loop redraws a Display on an interval and whenever it is woken up.
type Loop struct {
	d      *Display
	logger *zap.Logger

	Interval  time.Duration
	ErrorWait time.Duration

	prepare []Prepare
	wakeup  chan struct{}
	paused  atomic.Bool
	redraws atomic.Int64
}

func (l *Loop) OnPrepare(fn Prepare) {
	l.prepare = append(l.prepare, fn)
}

// Wakeup schedules an immediate redraw and clears a pause.
func (l *Loop) Wakeup() {
	l.paused.Store(false)
	select {
	case l.wakeup <- struct{}{}:
	default:
	}
}

// Pause stops scheduled redraws until the next Wakeup.
func (l *Loop) Pause() {
	l.paused.Store(true)
}

func (l *Loop) Paused() bool {
	return l.paused.Load()
}

// Redraws counts successful redraws.
func (l *Loop) Redraws() int64 {
	return l.redraws.Load()
}

func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Nanosecond)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wakeup:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(time.Millisecond)
		case <-timer.C:
			if l.paused.Load() {
				l.logger.Debug("redraw paused, skip")
				continue
			}
			if err := l.tick(ctx); err != nil {
				l.logger.With(zap.Error(err)).Info("redraw failed")
				timer.Reset(l.ErrorWait)
			} else {
				timer.Reset(l.Interval)
			}
		}
	}
}

func (l *Loop) tick(ctx context.Context) error {
	for _, fn := range l.prepare {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	if err := l.d.RedrawFull(); err != nil {
		return err
	}

	l.redraws.Inc()
	return nil
}
