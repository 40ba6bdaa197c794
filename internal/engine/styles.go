package engine

import (
	"fmt"

	"storyweave/internal/domain"
)

// StylePatch carries the fields of a style class update; nil fields are kept
type StylePatch struct {
	Name          *string `json:"name,omitempty"`
	RawDefinition *string `json:"raw_definition,omitempty"`
}

func checkStyleName(name string) error {
	if !domain.ValidStyleName(name) {
		return &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("%q is not a valid class name", name)}
	}
	return nil
}

// checkDefinition normalizes def and fails when nothing usable remains
func checkDefinition(def string) (string, error) {
	def = domain.NormalizeStyleDefinition(def)
	if err := domain.CheckStyleDefinition(def); err != nil {
		return "", err
	}
	return def, nil
}

// CreateStyleClass adds a style class to g. The definition is stored without
// surrounding whitespace or trailing semicolons.
func CreateStyleClass(g *domain.Graph, name, rawDefinition string) (*domain.StyleClass, error) {
	if err := checkStyleName(name); err != nil {
		return nil, err
	}
	if err := g.AssertUniqueStyleName(name, ""); err != nil {
		return nil, err
	}
	def, err := checkDefinition(rawDefinition)
	if err != nil {
		return nil, err
	}
	return g.AddStyleClass(name, def), nil
}

// UpdateStyleClass renames and/or redefines a style class. A rename rewrites
// every node and cluster that referenced the old name.
func UpdateStyleClass(g *domain.Graph, classID string, patch StylePatch) (*domain.StyleClass, error) {
	sc := g.StyleClass(classID)
	if sc == nil {
		return nil, &domain.NotFoundError{Kind: domain.KindStyleClass, ID: classID}
	}
	if patch.Name != nil {
		if err := checkStyleName(*patch.Name); err != nil {
			return nil, err
		}
		if err := g.AssertUniqueStyleName(*patch.Name, sc.ID); err != nil {
			return nil, err
		}
	}
	def := sc.RawDefinition
	if patch.RawDefinition != nil {
		var err error
		if def, err = checkDefinition(*patch.RawDefinition); err != nil {
			return nil, err
		}
	}

	if patch.Name != nil && *patch.Name != sc.Name {
		rewriteStyleRefs(g, sc.Name, *patch.Name)
		sc.Name = *patch.Name
	}
	sc.RawDefinition = def
	return sc, nil
}

// DeleteStyleClass removes a style class and clears every reference to it.
// It returns how many nodes and clusters were cleared.
func DeleteStyleClass(g *domain.Graph, classID string) (int, error) {
	sc := g.StyleClass(classID)
	if sc == nil {
		return 0, &domain.NotFoundError{Kind: domain.KindStyleClass, ID: classID}
	}

	cleared := rewriteStyleRefs(g, sc.Name, "")
	for i, other := range g.StyleClasses {
		if other.ID == sc.ID {
			g.StyleClasses = append(g.StyleClasses[:i], g.StyleClasses[i+1:]...)
			break
		}
	}
	return cleared, nil
}

func rewriteStyleRefs(g *domain.Graph, from, to string) int {
	count := 0
	for _, n := range g.Nodes {
		if n.StyleRef == from {
			n.StyleRef = to
			count++
		}
	}
	for _, c := range g.Clusters {
		if c.StyleRef == from {
			c.StyleRef = to
			count++
		}
	}
	return count
}
