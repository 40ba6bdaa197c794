// Package service implements the graph operations exposed by storyweave.
//
// GraphService is the only writer. Each operation loads the graph from the
// repository, calls into the engine, lets the repository validate and save
// the result in one transaction, then publishes an Event. If the engine or
// the save fails, nothing is published and the stored graph is unchanged.
//
// # Event System
//
// EventBus fans events out to subscriber channels without blocking; a slow
// subscriber misses events rather than stalling a request. The server wires
// the bus into the SSE hub so editors can refresh when a graph changes.
//
// # Concurrency
//
// There is no locking or versioning. Two writers of the same graph race and
// the last save wins.
package service
