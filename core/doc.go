// Package core defines the shared domain types of funnelmesh: conversation
// context snapshots, context deltas, handoff signals, agent results and the
// Agent capability interface, plus the error taxonomy used across the
// supervisor, router and cache layers. It deliberately has no third-party
// dependencies so every other package can import it without cycles.
package core
