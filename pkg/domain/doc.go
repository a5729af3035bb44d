// Package domain contains the core types of the scenario session engine:
// the Scenario content model, the Session state machine record, per-step
// Decisions, and the sentinel errors shared across ports and adapters.
//
// Types here have no behavior beyond construction, validation, and copying.
// All mutation goes through the session controller.
package domain
