/*
Package moot is a scenario session engine for interactive legal training.

A scenario is a courtroom or negotiation narrative with a fixed number of
decision points. A trainee opens a session against a scenario, submits one
decision per step, and an evaluator scores each decision and narrates its
consequences. When every step is answered the session is completed
explicitly, producing a final score and holistic feedback.

# Architecture

The engine follows a hexagonal layout: pkg/domain holds the session model,
pkg/ports defines the driven interfaces (scenario catalog, session store,
evaluator, distributed locker), and pkg/adapters provides implementations
(YAML file catalog, in-memory and Redis stores, the Anthropic evaluator,
HTTP and MCP transports). The session controller in pkg/session enforces
the step guard: a decision is accepted only for the session's current step,
so replays and races resolve deterministically.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/moot"
	)

	func main() {
		eng, err := moot.New("./scenarios")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		sess, err := eng.CreateSession(ctx, "contract-dispute", "trainee-1")
		if err != nil {
			log.Fatal(err)
		}

		sess, err = eng.SubmitDecision(ctx, sess.ID, 1, "File a motion to dismiss")
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("scored %d: %s", sess.Decisions[0].Score, sess.Decisions[0].Response)
	}

By default sessions live in memory and decisions are graded by the offline
scripted evaluator. Production deployments inject the Redis store and the
Anthropic evaluator via options.
*/
package moot
