// Package tickfsmtest provides test doubles for tickfsm machines: a Journal
// of hook calls, Spy states that write to it, and a Recorder that collects
// diagnostics.
package tickfsmtest

import (
	"slices"
	"sync"

	"github.com/librescoot/tickfsm"
)

// Journal records hook calls in order as "name.hook" strings
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry
func (j *Journal) Add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of all entries
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// Count returns how many times entry was recorded
func (j *Journal) Count(entry string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.entries {
		if e == entry {
			n++
		}
	}
	return n
}

// Reset drops all entries
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// Spy is a State that records its hook calls and optionally runs hook functions
type Spy struct {
	Name    string
	Journal *Journal
	Machine *tickfsm.Machine

	// Hooks run after the call is recorded
	OnEnter func(s *Spy)
	OnTick  func(s *Spy)
	OnExit  func(s *Spy)

	Inits, Enters, Ticks, Exits int
}

// NewSpy creates a spy writing to j
func NewSpy(name string, j *Journal) *Spy {
	return &Spy{Name: name, Journal: j}
}

func (s *Spy) Init(m *tickfsm.Machine) {
	s.Machine = m
	s.Inits++
	s.record("init")
}

func (s *Spy) Enter() {
	s.Enters++
	s.record("enter")
	if s.OnEnter != nil {
		s.OnEnter(s)
	}
}

func (s *Spy) Tick() {
	s.Ticks++
	s.record("tick")
	if s.OnTick != nil {
		s.OnTick(s)
	}
}

func (s *Spy) Exit() {
	s.Exits++
	s.record("exit")
	if s.OnExit != nil {
		s.OnExit(s)
	}
}

func (s *Spy) String() string {
	return s.Name
}

func (s *Spy) record(hook string) {
	if s.Journal != nil {
		s.Journal.Add(s.Name + "." + hook)
	}
}

// Recorder is a tickfsm.Reporter that keeps every diagnostic
type Recorder struct {
	mu          sync.Mutex
	diagnostics []tickfsm.Diagnostic
}

// Report implements tickfsm.Reporter
func (r *Recorder) Report(d tickfsm.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// All returns every recorded diagnostic
func (r *Recorder) All() []tickfsm.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.diagnostics)
}

// Errors returns the error diagnostics
func (r *Recorder) Errors() []tickfsm.Diagnostic {
	return r.bySeverity(tickfsm.SeverityError)
}

// Warnings returns the warning diagnostics
func (r *Recorder) Warnings() []tickfsm.Diagnostic {
	return r.bySeverity(tickfsm.SeverityWarning)
}

// Reset drops all diagnostics
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = nil
}

func (r *Recorder) bySeverity(s tickfsm.Severity) []tickfsm.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tickfsm.Diagnostic
	for _, d := range r.diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}
