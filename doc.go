/*
Package sopflow is a workflow runtime for Standard Operating Procedures.

A SOP is a directed graph: statuses (nodes) connected by actions (edges). Cases
are opened on the start status and moved along actions until they rest on an
end status. Each action can require a role, field values and attached documents,
and every successful move appends an audit entry carrying the simulated
notifications it fired.

# Concept

The runtime is pure: it takes a definition and a case and returns the next case
value without touching storage. The Engine in this package wires it to a
definition source, a case store, an optional audit log and distributed locker,
so a host (CLI, HTTP server, MCP server) only deals with ids and requests.

# Key Features

  - Structural validation of definitions with catalog warnings.
  - Ordered precondition checks with typed rejection errors.
  - Per-case locking, optionally backed by Redis.
  - Encryption at rest and PII masking as store middleware.
  - Progress estimates, Mermaid diagrams and CSV audit exports.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/sopflow"
		)

	func main() {
		// Loads every YAML/JSON definition in ./definitions
		eng, err := sopflow.New("./definitions")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		obj, err := eng.Open(ctx, "purchase-request", "Standing desk", "")
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.Move(ctx, obj.ID, sopflow.TransitionRequest{EdgeID: "open", Actor: "ana"})
		if err != nil {
			log.Fatal(err)
		}
		log.Println("now at", res.Object.CurrentNodeID)
	}
*/
package sopflow
