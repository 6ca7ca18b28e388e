package tickfsm

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// Loop drives a Machine at a fixed tick rate.
//
// Run ticks the machine on the calling goroutine, so states and frame hooks
// never race with each other. Frame and error counters may be read from any
// goroutine.
type Loop struct {
	machine  *Machine
	tickRate time.Duration

	frameHook func(frame uint64)
	onError   func(err error)

	frames atomic.Uint64
	errs   atomic.Uint64
}

// LoopOption is a functional option for configuring a Loop
type LoopOption func(*Loop)

// WithTickRate sets the interval between frames
func WithTickRate(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.tickRate = d
		}
	}
}

// WithLoopConfig applies the configured tick rate
func WithLoopConfig(cfg Config) LoopOption {
	return WithTickRate(cfg.TickRate)
}

// WithFrameHook sets a function run before every tick, e.g. to poll input
func WithFrameHook(fn func(frame uint64)) LoopOption {
	return func(l *Loop) {
		l.frameHook = fn
	}
}

// WithErrorHandler sets a function receiving the error of every failed tick
func WithErrorHandler(fn func(err error)) LoopOption {
	return func(l *Loop) {
		l.onError = fn
	}
}

// NewLoop creates a loop for m
func NewLoop(m *Machine, opts ...LoopOption) *Loop {
	l := &Loop{
		machine:  m,
		tickRate: DefaultTickRate,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run ticks the machine every tick rate until ctx is done, and returns ctx.Err()
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	l.machine.logger.Debug("loop started", "tick_rate", l.tickRate)
	defer func() {
		l.machine.logger.Debug("loop stopped", "frames", l.frames.Load(), "errors", l.errs.Load())
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = l.Step()
		}
	}
}

// Step runs a single frame: the frame hook followed by one Machine.Tick
func (l *Loop) Step() error {
	frame := l.frames.Inc()

	if l.frameHook != nil {
		l.frameHook(frame)
	}

	err := l.machine.Tick()
	if err != nil {
		l.errs.Inc()
		if l.onError != nil {
			l.onError(err)
		}
	}
	return err
}

// Frames returns the number of frames run so far
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Errors returns the number of frames whose tick failed
func (l *Loop) Errors() uint64 {
	return l.errs.Load()
}
