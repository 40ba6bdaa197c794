package domain

import "github.com/google/uuid"

// StyleClass is a named, reusable presentation definition (a classDef)
type StyleClass struct {
	ID      string `json:"id"`
	GraphID string `json:"graph_id"`
	Name    string `json:"name"`
	// RawDefinition is passed through to the DSL untouched
	RawDefinition string `json:"raw_definition"`
}

// NewStyleClass creates a new style class
func NewStyleClass(graphID, name, rawDefinition string) *StyleClass {
	return &StyleClass{
		ID:            uuid.NewString(),
		GraphID:       graphID,
		Name:          name,
		RawDefinition: rawDefinition,
	}
}
