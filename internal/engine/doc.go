// Package engine holds the operations that change a graph in memory.
//
// Sync reconciles a graph with newly submitted DSL text. Everything else is
// a partial update: it mutates the structured entities in place and leaves
// Graph.Source stale until the next export or resync.
//
// Every operation checks its preconditions before writing any field, so a
// returned error means the graph was not changed. Persistence is the
// caller's job.
package engine
