// Package domain defines the structured model of a narrative diagram.
//
// A Graph holds the stored DSL source text next to four kinds of structural
// entities: Nodes, Edges, StyleClasses and Clusters. Every child entity is
// scoped to exactly one Graph and refers to its siblings by entity ID (edges,
// cluster membership) or by name (style references).
//
// # Invariants
//
// Graph.Validate checks the rules every successful operation must preserve:
//
//   - mermaid IDs are unique per node and per cluster within a graph
//   - style references name an existing StyleClass of the same graph
//   - edge endpoints are nodes of the same graph
//   - Node.ClusterID and Cluster.NodeIDs agree in both directions
//
// The Assert* methods check one rule each and are called before a mutation is
// applied, so a failed check leaves the graph untouched.
//
// # Errors
//
// The error types in errors.go form the taxonomy surfaced to callers:
// ParseError, DuplicateIDError, UnresolvedStyleReferenceError,
// UnresolvedNodeReferenceError, NotFoundError and ValidationError.
//
// # Design Principles
//
// - No database or transport dependencies
// - Entity IDs are UUIDs; mermaid IDs are the stable external keys
// - Shape gives an identity-free view for round-trip comparison
package domain
