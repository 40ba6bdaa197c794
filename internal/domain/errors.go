package domain

import (
	"errors"
	"fmt"
)

// EntityKind names the entity an error is about
type EntityKind string

const (
	KindGraph      EntityKind = "graph"
	KindNode       EntityKind = "node"
	KindEdge       EntityKind = "edge"
	KindCluster    EntityKind = "cluster"
	KindStyleClass EntityKind = "style_class"
)

// ParseError reports a DSL line the parser could not accept
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %s", e.Line, e.Message)
}

// DuplicateIDError reports a second entity claiming a unique key
type DuplicateIDError struct {
	Kind EntityKind
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate %s id %q", e.Kind, e.ID)
}

// UnresolvedStyleReferenceError reports a reference to a style class that does not exist
type UnresolvedStyleReferenceError struct {
	Name string
}

func (e *UnresolvedStyleReferenceError) Error() string {
	return fmt.Sprintf("style class %q is not defined", e.Name)
}

// UnresolvedNodeReferenceError reports a reference to a node that does not exist in the graph
type UnresolvedNodeReferenceError struct {
	ID string
}

func (e *UnresolvedNodeReferenceError) Error() string {
	return fmt.Sprintf("node %q does not exist in this graph", e.ID)
}

// NotFoundError reports a lookup by ID that found nothing
type NotFoundError struct {
	Kind EntityKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError reports an input field that failed validation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err wraps a DuplicateIDError
func IsConflict(err error) bool {
	var dup *DuplicateIDError
	return errors.As(err, &dup)
}

// IsInvalid reports whether err is caused by bad input: a parse failure, a
// failed validation or an unresolved reference
func IsInvalid(err error) bool {
	var (
		pe *ParseError
		ve *ValidationError
		us *UnresolvedStyleReferenceError
		un *UnresolvedNodeReferenceError
	)
	return errors.As(err, &pe) || errors.As(err, &ve) || errors.As(err, &us) || errors.As(err, &un)
}
