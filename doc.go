// Package tickfsm is a finite-state machine for frame-driven programs.
//
// Register states under a StateID, Start the machine in one of them and call
// Tick once per frame. A state may hand off to another with
// SetState(id, WithExpedite()), which ticks the new state within the same
// frame. Chains of expedited transitions are cut off after
// DefaultExpediteLimit steps so a cycle degrades to an error instead of a hang.
package tickfsm
