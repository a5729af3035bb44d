// Package ports defines the interfaces between the session engine core and
// its collaborators (scenario catalog, decision evaluator, session storage,
// distributed locking), following the hexagonal architecture: the core owns
// the contracts, adapters implement them.
package ports
