// Package schema defines the registry of collectible requirement fields.
package schema

import (
	"regexp"
)

// Kind is the data kind of a field.
type Kind string

const (
	KindMoney    Kind = "money"
	KindNumber   Kind = "number"
	KindEnum     Kind = "enum"
	KindText     Kind = "text"
	KindCityName Kind = "city-name"
)

// FieldSpec describes a single collectible field.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
	MaxLen   int

	// Pattern applies to text and city-name kinds.
	Pattern *regexp.Regexp

	// Allowed is the canonical value set for enum kinds.
	Allowed []string

	// Aliases maps common synonyms to a canonical allowed value.
	Aliases map[string]string

	// Min and Max bound money and number kinds.
	Min float64
	Max float64

	// Prompt is the question asked while this field is missing.
	Prompt string
}

// Registry is the immutable set of field specs for a deployment. It is safe
// for concurrent use without locking.
type Registry struct {
	specs map[string]FieldSpec
	order []string
}

// New creates a registry from the given specs, preserving declaration order.
func New(specs ...FieldSpec) *Registry {
	r := &Registry{specs: make(map[string]FieldSpec, len(specs))}
	for _, s := range specs {
		if _, dup := r.specs[s.Name]; dup {
			continue
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r
}

// Spec returns the spec for a field name.
func (r *Registry) Spec(name string) (FieldSpec, bool) {
	s, ok := r.specs[name]
	return s, ok
}

// RequiredFields returns the required field names in declaration order.
func (r *Registry) RequiredFields() []string {
	var names []string
	for _, name := range r.order {
		if r.specs[name].Required {
			names = append(names, name)
		}
	}
	return names
}

// AllFields returns every field name in declaration order.
func (r *Registry) AllFields() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

var namePattern = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)

// Default returns the real-estate requirements schema.
func Default() *Registry {
	return New(
		FieldSpec{
			Name:     "budget",
			Kind:     KindMoney,
			Required: true,
			MaxLen:   20,
			Min:      10_000,
			Max:      1_000_000_000,
			Prompt:   "What is your budget for this property?",
		},
		FieldSpec{
			Name:     "total_size",
			Kind:     KindNumber,
			Required: true,
			MaxLen:   20,
			Min:      10,
			Max:      10_000,
			Prompt:   "How much space do you need, in square meters?",
		},
		FieldSpec{
			Name:     "property_type",
			Kind:     KindEnum,
			Required: true,
			MaxLen:   20,
			Allowed:  []string{"apartment", "house", "commercial"},
			Aliases: map[string]string{
				"retail":     "commercial",
				"store":      "commercial",
				"office":     "commercial",
				"warehouse":  "commercial",
				"industrial": "commercial",
				"flat":       "apartment",
				"condo":      "apartment",
			},
			Prompt: "What type of property are you looking for: apartment, house, or commercial?",
		},
		FieldSpec{
			Name:     "city",
			Kind:     KindCityName,
			Required: true,
			MaxLen:   50,
			Pattern:  namePattern,
			Prompt:   "Which city should the property be in?",
		},
	)
}
