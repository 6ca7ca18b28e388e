package tickfsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// entry is a registered state, owned by the Machine
type entry struct {
	id    StateID
	state State
	name  string
}

// Machine is a tick-driven FSM runtime.
//
// A Machine is not safe for concurrent use. All calls, including those made
// from state hooks, must happen on the goroutine that drives Tick.
type Machine struct {
	name   string
	states map[StateID]*entry
	active *entry

	running bool

	// Expedite bookkeeping for the current outer tick
	trail         []StateID
	expediteLimit int
	depth         int // state Tick hooks currently on the stack
	cycleErrs     []error

	debug        bool
	autoActivate bool

	data                any
	logger              *slog.Logger
	reporter            Reporter
	stateChangeCallback func(Transition)
}

// Option is a functional option for configuring a Machine
type Option func(*Machine)

// WithLogger sets the logger for the machine
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithReporter sets the sink that receives diagnostics
func WithReporter(r Reporter) Option {
	return func(m *Machine) {
		m.reporter = r
	}
}

// WithDebug enables transition and tick trace
func WithDebug(enabled bool) Option {
	return func(m *Machine) {
		m.debug = enabled
	}
}

// WithExpediteLimit sets how many expedited transitions one outer tick may
// chain before further ones are refused
func WithExpediteLimit(limit int) Option {
	return func(m *Machine) {
		if limit >= 0 {
			m.expediteLimit = limit
		}
	}
}

// WithAutoActivate makes the first registered state active immediately
// (without ticking it). Off by default: machines are activated with Start.
func WithAutoActivate(enabled bool) Option {
	return func(m *Machine) {
		m.autoActivate = enabled
	}
}

// WithData sets application data reachable from states through Data
func WithData(data any) Option {
	return func(m *Machine) {
		m.data = data
	}
}

// WithMachineName sets the machine name attached to every log record
func WithMachineName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithStateChangeCallback sets a callback invoked after each transition
func WithStateChangeCallback(fn func(Transition)) Option {
	return func(m *Machine) {
		m.stateChangeCallback = fn
	}
}

// New creates an empty, paused machine
func New(opts ...Option) *Machine {
	m := &Machine{
		states:        make(map[StateID]*entry),
		expediteLimit: DefaultExpediteLimit,
		logger:        Logger,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.name == "" {
		m.name = uuid.NewString()
	}
	m.logger = m.logger.With("fsm", m.name)

	return m
}

// OnStateChange sets a callback invoked after each transition
func (m *Machine) OnStateChange(fn func(Transition)) {
	m.stateChangeCallback = fn
}

// SetDebug toggles transition and tick trace
func (m *Machine) SetDebug(enabled bool) {
	m.debug = enabled
}

// Register adds a state under id and calls its Init hook.
// A second registration under the same id is rejected and the original kept.
func (m *Machine) Register(state State, id StateID) error {
	if isNil(state) {
		err := fmt.Errorf("register state %d: %w", id, ErrNilState)
		m.report(Diagnostic{Severity: SeverityError, Op: OpRegister, State: id, Message: "valid state must be passed", Err: err})
		return err
	}

	if existing, ok := m.states[id]; ok {
		err := &DuplicateStateError{ID: id, Existing: existing.name, Rejected: stateName(state)}
		m.report(Diagnostic{Severity: SeverityError, Op: OpRegister, State: id, Message: "state id already in use", Err: err})
		return err
	}

	e := &entry{id: id, state: state, name: stateName(state)}
	m.states[id] = e
	state.Init(m)
	m.trace(OpRegister, id, "state registered", "name", e.name)

	if m.autoActivate && len(m.states) == 1 && m.active == nil {
		return m.SetState(id)
	}
	return nil
}

// Run lets Tick and expedited transitions execute
func (m *Machine) Run() {
	m.running = true
}

// Pause makes Tick a no-op and refuses expedited ticks until Run is called
func (m *Machine) Pause() {
	m.running = false
}

// Running reports whether the machine is running
func (m *Machine) Running() bool {
	return m.running
}

// Start runs the machine and makes id active, ticking it immediately
func (m *Machine) Start(id StateID) error {
	m.Run()
	return m.SetState(id, WithExpedite())
}

// SetState makes id the active state.
//
// Exit and Enter run only if the active state changes, or always with
// WithForce. With WithExpedite the new active state is ticked before SetState
// returns; that tick may itself call SetState, bounded by the expedite limit.
func (m *Machine) SetState(id StateID, opts ...TransitionOption) error {
	t := Transition{To: id}
	for _, opt := range opts {
		opt(&t)
	}

	target, ok := m.states[id]
	if !ok {
		err := &UnknownStateError{ID: id}
		m.report(Diagnostic{Severity: SeverityError, Op: OpSetState, State: id, Message: "state id could not be found", Err: err})
		return err
	}

	if target != m.active || t.Forced {
		if m.active != nil {
			t.From = m.active.id
			m.active.state.Exit()
		} else {
			t.Initial = true
		}
		m.active = target
		target.state.Enter()

		m.trace(OpSetState, id, "state changed", "name", target.name, "from", t.From, "initial", t.Initial, "forced", t.Forced)
		if m.stateChangeCallback != nil {
			m.stateChangeCallback(t)
		}
	}

	if !t.Expedited {
		return nil
	}

	if !m.running {
		err := fmt.Errorf("expedite state %d: %w", id, ErrNotRunning)
		m.report(Diagnostic{Severity: SeverityWarning, Op: OpExpedite, State: id, Message: "can't execute state this frame, machine is not running", Err: err})
		return err
	}

	// Expedites issued outside any state tick open a fresh budget
	topLevel := m.depth == 0
	if topLevel {
		m.trail = m.trail[:0]
		m.cycleErrs = m.cycleErrs[:0]
	}

	if len(m.trail) > m.expediteLimit {
		err := &ExpediteLimitError{Limit: m.expediteLimit, Trail: slices.Clone(m.trail)}
		m.report(Diagnostic{Severity: SeverityError, Op: OpExpedite, State: id, Message: "expedite state limit reached", Trail: err.Trail, Err: err})
		return err
	}

	// Enter or the state change callback may have moved on from target
	m.trail = append(m.trail, m.active.id)
	m.trace(OpExpedite, m.active.id, "expedited tick", "depth", len(m.trail))
	m.tickEntry(m.active)

	if topLevel {
		return errors.Join(m.cycleErrs...)
	}
	return nil
}

// Tick advances the active state by one cycle. It is a no-op while paused.
//
// The returned error joins every error and warning reported during the
// cycle, including those from expedited transitions requested by states.
func (m *Machine) Tick() error {
	if !m.running {
		return nil
	}

	if m.depth > 0 {
		m.report(Diagnostic{Severity: SeverityError, Op: OpTick, State: m.active.id, Message: "tick called from within a state hook", Err: ErrReentrantTick})
		return ErrReentrantTick
	}

	if m.active == nil {
		m.report(Diagnostic{Severity: SeverityError, Op: OpTick, Message: "tick before any state was set", Err: ErrNoActiveState})
		return ErrNoActiveState
	}

	m.trail = m.trail[:0]
	m.cycleErrs = m.cycleErrs[:0]

	m.trace(OpTick, m.active.id, "tick", "name", m.active.name)
	m.tickEntry(m.active)

	return errors.Join(m.cycleErrs...)
}

func (m *Machine) tickEntry(e *entry) {
	m.depth++
	defer func() { m.depth-- }()
	e.state.Tick()
}

// Exists reports whether id is registered
func (m *Machine) Exists(id StateID) bool {
	_, ok := m.states[id]
	return ok
}

// CurrentState returns the active state, if any
func (m *Machine) CurrentState() (StateID, bool) {
	if m.active == nil {
		return 0, false
	}
	return m.active.id, true
}

// States returns the registered ids in ascending order
func (m *Machine) States() []StateID {
	ids := make([]StateID, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ExpediteTrail returns the states expedited during the current or last outer tick
func (m *Machine) ExpediteTrail() []StateID {
	return slices.Clone(m.trail)
}

// ExpediteLimit returns the configured expedite limit
func (m *Machine) ExpediteLimit() int {
	return m.expediteLimit
}

// Name returns the machine name
func (m *Machine) Name() string {
	return m.name
}

// Data returns the application data set with WithData
func (m *Machine) Data() any {
	return m.data
}

// Logger returns the machine logger, for use by states
func (m *Machine) Logger() *slog.Logger {
	return m.logger
}

// report logs d, forwards it to the reporter and records it for the current cycle
func (m *Machine) report(d Diagnostic) {
	attrs := []any{"op", d.Op, "state", d.State}
	if len(d.Trail) > 0 {
		attrs = append(attrs, "trail", d.Trail)
	}
	if d.Err != nil {
		attrs = append(attrs, "error", d.Err)
	}
	m.logger.Log(context.Background(), d.Severity.Level(), d.Message, attrs...)

	if m.reporter != nil {
		m.reporter.Report(d)
	}

	if d.Err != nil && m.depth > 0 {
		m.cycleErrs = append(m.cycleErrs, d.Err)
	}
}

// trace logs transition and tick events. With debug enabled they are
// promoted to Info and forwarded to the reporter.
func (m *Machine) trace(op string, id StateID, msg string, args ...any) {
	if !m.debug {
		m.logger.Debug(msg, append([]any{"op", op, "state", id}, args...)...)
		return
	}
	m.logger.Info(msg, append([]any{"op", op, "state", id}, args...)...)
	if m.reporter != nil {
		m.reporter.Report(Diagnostic{Severity: SeverityDebug, Op: op, State: id, Message: msg})
	}
}
