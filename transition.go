package tickfsm

// Transition describes a change of the active state
type Transition struct {
	From      StateID // Previous state, meaningless when Initial is set
	To        StateID
	Initial   bool // No state was active before
	Forced    bool // Exit/Enter re-run even if From == To
	Expedited bool // Target ticks before SetState returns
}

// TransitionOption is a functional option for configuring a Transition
type TransitionOption func(*Transition)

// WithExpedite ticks the target state synchronously before SetState returns
func WithExpedite() TransitionOption {
	return func(t *Transition) {
		t.Expedited = true
	}
}

// WithForce re-runs Exit and Enter even when the target is already active
func WithForce() TransitionOption {
	return func(t *Transition) {
		t.Forced = true
	}
}
