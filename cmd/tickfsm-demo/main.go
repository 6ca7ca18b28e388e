// Command tickfsm-demo drives a two-state button machine from a scripted
// input pattern, one character per frame: '#' pressed, anything else released.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/librescoot/tickfsm"
)

const (
	stateIdle tickfsm.StateID = iota
	stateButtonDown
)

// button is the simulated input device polled once per frame
type button struct {
	pattern string
	down    bool
}

func (b *button) poll(frame uint64) {
	i := int(frame-1) % len(b.pattern)
	b.down = b.pattern[i] == '#'
}

type idleState struct {
	fsm    *tickfsm.Machine
	button *button
}

func (s *idleState) Init(m *tickfsm.Machine) {
	s.fsm = m
	m.Logger().Info("state initialized", "state", "idle")
}

func (s *idleState) Enter() { s.fsm.Logger().Info("entering idle") }
func (s *idleState) Exit() { s.fsm.Logger().Info("exiting idle") }

func (s *idleState) Tick() {
	if s.button.down {
		s.fsm.Logger().Info("button down detected")
		if err := s.fsm.SetState(stateButtonDown, tickfsm.WithExpedite()); err != nil {
			s.fsm.Logger().Error("failed to enter button_down", "error", err)
		}
	}
}

type buttonDownState struct {
	fsm    *tickfsm.Machine
	button *button
	held   int
}

func (s *buttonDownState) Init(m *tickfsm.Machine) {
	s.fsm = m
	m.Logger().Info("state initialized", "state", "button_down")
}

func (s *buttonDownState) Enter() {
	s.held = 0
	s.fsm.Logger().Info("entering button_down")
}

func (s *buttonDownState) Exit() {
	s.fsm.Logger().Info("exiting button_down", "held_frames", s.held)
}

func (s *buttonDownState) Tick() {
	if !s.button.down {
		s.fsm.Logger().Info("button up detected")
		if err := s.fsm.SetState(stateIdle); err != nil {
			s.fsm.Logger().Error("failed to enter idle", "error", err)
		}
		return
	}
	s.held++
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tickfsm-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (.yaml, .yml or .toml); defaults to TICKFSM_* environment")
	frames := flag.Uint64("frames", 120, "number of frames to run, 0 for until interrupted")
	pattern := flag.String("pattern", "....####....##..", "button input, one character per frame")
	flag.Parse()

	if *pattern == "" {
		return errors.New("pattern must not be empty")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.NewLogger(os.Stdout)
	if err != nil {
		return err
	}

	btn := &button{pattern: *pattern}
	m, err := tickfsm.NewDefinition().
		State(stateIdle, &idleState{button: btn}).
		State(stateButtonDown, &buttonDownState{button: btn}).
		Initial(stateIdle).
		Start(
			tickfsm.WithConfig(cfg),
			tickfsm.WithLogger(logger),
			tickfsm.WithMachineName("button"),
		)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := tickfsm.NewLoop(m,
		tickfsm.WithLoopConfig(cfg),
		tickfsm.WithFrameHook(func(frame uint64) {
			if *frames > 0 && frame > *frames {
				m.Pause()
				cancel()
				return
			}
			btn.poll(frame)
		}),
		tickfsm.WithErrorHandler(func(err error) {
			logger.Error("tick failed", "error", err)
		}),
	)

	err = loop.Run(ctx)
	logger.Info("done", "frames", loop.Frames(), "errors", loop.Errors())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadConfig(path string) (tickfsm.Config, error) {
	if path == "" {
		return tickfsm.LoadConfigFromEnv()
	}
	return tickfsm.LoadConfig(path)
}
