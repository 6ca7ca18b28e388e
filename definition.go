package tickfsm

import (
	"fmt"
)

type definedState struct {
	id    StateID
	state State
}

// Definition declares the states of a machine before building it
type Definition struct {
	states     []definedState
	initial    StateID
	hasInitial bool
}

// NewDefinition creates a new machine definition builder
func NewDefinition() *Definition {
	return &Definition{
		states: make([]definedState, 0),
	}
}

// State adds a state. States are registered in the order they are added.
func (d *Definition) State(id StateID, s State) *Definition {
	d.states = append(d.states, definedState{id: id, state: s})
	return d
}

// Func adds a state built from hook functions
func (d *Definition) Func(id StateID, opts ...StateOption) *Definition {
	return d.State(id, NewState(opts...))
}

// Initial sets the state entered by Start
func (d *Definition) Initial(id StateID) *Definition {
	d.initial = id
	d.hasInitial = true
	return d
}

// Validate checks the definition for errors
func (d *Definition) Validate() error {
	if len(d.states) == 0 {
		return fmt.Errorf("no states defined")
	}

	seen := make(map[StateID]State, len(d.states))
	for _, s := range d.states {
		if isNil(s.state) {
			return fmt.Errorf("state %d: %w", s.id, ErrNilState)
		}
		if existing, ok := seen[s.id]; ok {
			return &DuplicateStateError{ID: s.id, Existing: stateName(existing), Rejected: stateName(s.state)}
		}
		seen[s.id] = s.state
	}

	if d.hasInitial {
		if _, ok := seen[d.initial]; !ok {
			return fmt.Errorf("initial state: %w", &UnknownStateError{ID: d.initial})
		}
	}

	return nil
}

// Build creates a paused Machine with every state registered
func (d *Definition) Build(opts ...Option) (*Machine, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	m := New(opts...)
	for _, s := range d.states {
		if err := m.Register(s.state, s.id); err != nil {
			return nil, fmt.Errorf("register state %d: %w", s.id, err)
		}
	}

	return m, nil
}

// Start builds the machine and starts it in the initial state
func (d *Definition) Start(opts ...Option) (*Machine, error) {
	if !d.hasInitial {
		return nil, fmt.Errorf("no initial state defined")
	}

	m, err := d.Build(opts...)
	if err != nil {
		return nil, err
	}

	if err := m.Start(d.initial); err != nil {
		return m, fmt.Errorf("start state %d: %w", d.initial, err)
	}
	return m, nil
}
