package tickfsm

import "log/slog"

// StateID is a unique identifier for a state within one Machine
type StateID int

// Integer is satisfied by integer-backed enum types whose every value fits
// in a StateID on all platforms. Wider types such as int64 or uint must be
// converted explicitly.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~uint8 | ~uint16
}

// ID converts an application enum value to a StateID.
//
//	type Screen int
//	const (
//		ScreenIdle Screen = iota
//		ScreenMenu
//	)
//	m.SetState(tickfsm.ID(ScreenMenu))
func ID[T Integer](v T) StateID {
	return StateID(v)
}

// DefaultExpediteLimit bounds the expedite trail of a single outer tick
const DefaultExpediteLimit = 10

// Severity classifies a Diagnostic
type Severity int

const (
	// SeverityDebug is transition and tick trace, emitted only with debug enabled
	SeverityDebug Severity = iota
	// SeverityWarning means the operation was partially applied
	SeverityWarning
	// SeverityError means the operation was refused
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Level maps the severity onto a slog level
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// Logger is the default logger used when none is provided
var Logger = slog.Default()
