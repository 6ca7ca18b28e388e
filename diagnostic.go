package tickfsm

// Diagnostic describes a condition observed by the machine. Errors and warnings
// are always reported; trace diagnostics only with debug enabled.
type Diagnostic struct {
	Severity Severity
	Op       string // register, set_state, expedite, tick
	State    StateID
	Message  string
	Trail    []StateID // expedite trail, set on limit errors
	Err      error
}

// Reporter receives diagnostics from a Machine. It is called synchronously on
// the goroutine that drives the machine.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(d Diagnostic)

// Report calls f(d)
func (f ReporterFunc) Report(d Diagnostic) {
	f(d)
}

// Operations named in diagnostics
const (
	OpRegister = "register"
	OpSetState = "set_state"
	OpExpedite = "expedite"
	OpTick     = "tick"
)
