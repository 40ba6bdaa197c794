package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// Lexical rules of the DSL. Validate applies them so that every stored graph
// serializes to text the parser reads back unchanged.

var (
	mermaidIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	// styleNamePattern is the identifier shape accepted by classDef and class lines
	styleNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	colorPattern     = regexp.MustCompile(`^[^\s,;|]+$`)
)

// reservedWords are DSL keywords that cannot be used as node or subgraph ids
var reservedWords = map[string]bool{
	"graph": true, "flowchart": true, "subgraph": true, "end": true, "direction": true,
	"classDef": true, "class": true, "linkStyle": true,
}

// IsReservedWord reports whether id is a DSL keyword
func IsReservedWord(id string) bool {
	return reservedWords[id]
}

// ValidMermaidID reports whether id can be written as a node or subgraph id
func ValidMermaidID(id string) bool {
	return mermaidIDPattern.MatchString(id) && !reservedWords[id]
}

// ValidStyleName reports whether name can be written as a classDef name
func ValidStyleName(name string) bool {
	return styleNamePattern.MatchString(name)
}

// ValidColor reports whether color can be written in a linkStyle stroke
func ValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// NormalizeStyleDefinition drops surrounding whitespace and trailing
// statement terminators, which the DSL does not keep
func NormalizeStyleDefinition(def string) string {
	return strings.TrimRightFunc(strings.TrimSpace(def), func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})
}

// CheckLabel fails when a node or cluster title cannot be written on one line
func CheckLabel(field, label string) error {
	if strings.ContainsAny(label, "\r\n") {
		return &ValidationError{Field: field, Reason: "must be a single line"}
	}
	return nil
}

// CheckEdgeLabel fails when an edge label would not read back unchanged
func CheckEdgeLabel(label string) error {
	if err := CheckLabel("label", label); err != nil {
		return err
	}
	if strings.TrimSpace(label) != label {
		return &ValidationError{Field: "label", Reason: "must not start or end with whitespace"}
	}
	return nil
}

// CheckStyleDefinition fails unless def is a non-empty single-line
// definition in normalized form
func CheckStyleDefinition(def string) error {
	switch {
	case def == "":
		return &ValidationError{Field: "raw_definition", Reason: "must not be empty"}
	case strings.ContainsAny(def, "\r\n"):
		return &ValidationError{Field: "raw_definition", Reason: "must be a single line"}
	case NormalizeStyleDefinition(def) != def:
		return &ValidationError{Field: "raw_definition", Reason: "must not have surrounding whitespace or a trailing ;"}
	}
	return nil
}

// CheckColor fails unless color is empty or a single stroke token
func CheckColor(color string) error {
	if color != "" && !ValidColor(color) {
		return &ValidationError{Field: "color", Reason: "must be one token without spaces, commas, semicolons or pipes"}
	}
	return nil
}
