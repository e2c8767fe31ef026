package service

import (
	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/schema"
)

// IsComplete reports whether every required field holds a valid value.
// Pure function over the session's field map and the registry.
func IsComplete(registry *schema.Registry, s *model.Session) bool {
	for _, name := range registry.RequiredFields() {
		fv, ok := s.Fields[name]
		if !ok || !fv.IsValid() {
			return false
		}
	}
	return true
}

// NextMissing returns the first required field without a valid value, in
// the schema's declared order. The tie-break is stable so the same session
// state always produces the same next question.
func NextMissing(registry *schema.Registry, s *model.Session) (schema.FieldSpec, bool) {
	for _, name := range registry.RequiredFields() {
		fv, ok := s.Fields[name]
		if ok && fv.IsValid() {
			continue
		}
		spec, _ := registry.Spec(name)
		return spec, true
	}
	return schema.FieldSpec{}, false
}
