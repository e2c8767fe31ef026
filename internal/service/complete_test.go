package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/schema"
)

func sessionWithValid(fields ...string) *model.Session {
	s := &model.Session{
		ID:     "s1",
		Status: model.StatusActive,
		Fields: make(map[string]model.FieldValue),
	}
	for _, name := range fields {
		s.Fields[name] = model.FieldValue{Field: name, Value: "x", Status: model.FieldValid}
	}
	return s
}

func TestIsComplete(t *testing.T) {
	r := schema.Default()

	assert.False(t, IsComplete(r, sessionWithValid()))
	assert.False(t, IsComplete(r, sessionWithValid("budget", "city")))
	assert.True(t, IsComplete(r, sessionWithValid("budget", "total_size", "property_type", "city")))
}

func TestIsCompleteIgnoresRejectedValues(t *testing.T) {
	r := schema.Default()
	s := sessionWithValid("budget", "total_size", "property_type", "city")
	s.Fields["city"] = model.FieldValue{Field: "city", Raw: "123", Status: model.FieldRejected}
	assert.False(t, IsComplete(r, s))
}

func TestNextMissingFollowsDeclaredOrder(t *testing.T) {
	r := schema.Default()

	next, ok := NextMissing(r, sessionWithValid())
	require.True(t, ok)
	assert.Equal(t, "budget", next.Name)

	next, ok = NextMissing(r, sessionWithValid("budget"))
	require.True(t, ok)
	assert.Equal(t, "total_size", next.Name)

	// Filling a later field does not change which earlier field is asked.
	next, ok = NextMissing(r, sessionWithValid("budget", "city"))
	require.True(t, ok)
	assert.Equal(t, "total_size", next.Name)

	_, ok = NextMissing(r, sessionWithValid("budget", "total_size", "property_type", "city"))
	assert.False(t, ok)
}

func TestNextMissingIsDeterministic(t *testing.T) {
	r := schema.Default()
	s := sessionWithValid("budget")
	first, _ := NextMissing(r, s)
	for i := 0; i < 10; i++ {
		next, _ := NextMissing(r, s)
		assert.Equal(t, first.Name, next.Name)
	}
}
