// Package repository defines the data access interface for storyweave.
//
// A graph is always read and written as a whole: GetGraph returns the graph
// with its nodes, edges, style classes and clusters in insertion order, and
// SaveGraph replaces the stored children in a single transaction. Services
// load, mutate in memory and save, so a failed mutation never reaches the
// database.
//
// The sqlite subpackage is the only implementation. It opens one
// connection in WAL mode, enforces foreign keys and migrates its schema on
// startup. Tests run it against in-memory databases.
package repository
