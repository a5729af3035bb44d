// Package session implements the session controller: the single authoritative
// state machine for scenario attempts. It validates step ordering, invokes
// the evaluator, appends decisions, and decides when a session reaches its
// terminal state. All mutating operations for a given session ID are
// serialized through a per-session lock (optionally extended across replicas
// by a distributed locker), and every write is guarded by the step/status
// the controller read, so concurrent submissions can never record two
// decisions for the same step.
package session
