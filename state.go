package tickfsm

import (
	"fmt"
	"reflect"
)

// State is a unit of behavior driven by a Machine.
//
// Init is called once at registration, before the state can become active.
// Enter is called when the state becomes active and Exit when it stops being
// active. Tick is called once per outer Machine.Tick while active, and again
// for every expedited transition that lands on it.
type State interface {
	Init(m *Machine)
	Enter()
	Tick()
	Exit()
}

// Funcs adapts plain functions to State. Nil hooks are skipped.
type Funcs struct {
	Name    string
	OnInit  func(m *Machine)
	OnEnter func()
	OnTick  func()
	OnExit  func()
}

func (f *Funcs) Init(m *Machine) {
	if f.OnInit != nil {
		f.OnInit(m)
	}
}

func (f *Funcs) Enter() {
	if f.OnEnter != nil {
		f.OnEnter()
	}
}

func (f *Funcs) Tick() {
	if f.OnTick != nil {
		f.OnTick()
	}
}

func (f *Funcs) Exit() {
	if f.OnExit != nil {
		f.OnExit()
	}
}

func (f *Funcs) String() string {
	if f.Name != "" {
		return f.Name
	}
	return "tickfsm.Funcs"
}

// StateOption is a functional option for configuring a Funcs state
type StateOption func(*Funcs)

// NewState builds a State from hook functions
func NewState(opts ...StateOption) *Funcs {
	f := &Funcs{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithName sets the name used in logs and diagnostics
func WithName(name string) StateOption {
	return func(f *Funcs) {
		f.Name = name
	}
}

// WithOnInit sets the registration hook
func WithOnInit(fn func(*Machine)) StateOption {
	return func(f *Funcs) {
		f.OnInit = fn
	}
}

// WithOnEnter sets the entry action for the state
func WithOnEnter(fn func()) StateOption {
	return func(f *Funcs) {
		f.OnEnter = fn
	}
}

// WithOnTick sets the per-tick action for the state
func WithOnTick(fn func()) StateOption {
	return func(f *Funcs) {
		f.OnTick = fn
	}
}

// WithOnExit sets the exit action for the state
func WithOnExit(fn func()) StateOption {
	return func(f *Funcs) {
		f.OnExit = fn
	}
}

func stateName(s State) string {
	if n, ok := s.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", s)
}

// isNil catches typed nil pointers stored in a State interface
func isNil(s State) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Slice, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
