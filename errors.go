package tickfsm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilState is returned when registering a nil state
	ErrNilState = errors.New("tickfsm: nil state")

	// ErrNotRunning is returned when an expedited transition is requested while
	// the machine is paused. The transition itself is still applied, only the
	// synchronous tick is skipped.
	ErrNotRunning = errors.New("tickfsm: machine not running")

	// ErrNoActiveState is returned by Tick when no state has been set yet
	ErrNoActiveState = errors.New("tickfsm: no active state")

	// ErrReentrantTick is returned when Tick is called from inside a state hook
	ErrReentrantTick = errors.New("tickfsm: tick called from within a state hook")
)

// UnknownStateError indicates a StateID that was never registered
type UnknownStateError struct {
	ID StateID
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("tickfsm: unknown state id %d", e.ID)
}

// DuplicateStateError indicates a registration under a StateID that is already in use.
// The original entry is kept.
type DuplicateStateError struct {
	ID       StateID
	Existing string
	Rejected string
}

func (e *DuplicateStateError) Error() string {
	return fmt.Sprintf("tickfsm: state id %d already used by %s, rejected %s", e.ID, e.Existing, e.Rejected)
}

// ExpediteLimitError indicates a chain of expedited transitions longer than the
// machine's limit within one outer tick
type ExpediteLimitError struct {
	Limit int
	Trail []StateID
}

func (e *ExpediteLimitError) Error() string {
	ids := make([]string, len(e.Trail))
	for i, id := range e.Trail {
		ids[i] = fmt.Sprint(int(id))
	}
	return fmt.Sprintf("tickfsm: expedite limit %d reached, trail: %s", e.Limit, strings.Join(ids, ", "))
}

// IsUnknownState reports whether err is an UnknownStateError
func IsUnknownState(err error) bool {
	var e *UnknownStateError
	return errors.As(err, &e)
}

// IsDuplicateState reports whether err is a DuplicateStateError
func IsDuplicateState(err error) bool {
	var e *DuplicateStateError
	return errors.As(err, &e)
}

// IsExpediteLimit reports whether err is an ExpediteLimitError
func IsExpediteLimit(err error) bool {
	var e *ExpediteLimitError
	return errors.As(err, &e)
}

// IsWarning reports whether err only signals a partially applied operation
func IsWarning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}
