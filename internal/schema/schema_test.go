package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"budget", "total_size", "property_type", "city"}, r.AllFields())
	assert.Equal(t, []string{"budget", "total_size", "property_type", "city"}, r.RequiredFields())

	budget, ok := r.Spec("budget")
	require.True(t, ok)
	assert.Equal(t, KindMoney, budget.Kind)
	assert.Equal(t, 10_000.0, budget.Min)
	assert.Equal(t, 1_000_000_000.0, budget.Max)

	pt, ok := r.Spec("property_type")
	require.True(t, ok)
	assert.Equal(t, KindEnum, pt.Kind)
	assert.Equal(t, "commercial", pt.Aliases["retail"])

	_, ok = r.Spec("unknown")
	assert.False(t, ok)
}

func TestNewPreservesDeclarationOrder(t *testing.T) {
	r := New(
		FieldSpec{Name: "c", Kind: KindText},
		FieldSpec{Name: "a", Kind: KindText, Required: true},
		FieldSpec{Name: "b", Kind: KindText, Required: true},
	)
	assert.Equal(t, []string{"c", "a", "b"}, r.AllFields())
	assert.Equal(t, []string{"a", "b"}, r.RequiredFields())
}

func TestNewSkipsDuplicateNames(t *testing.T) {
	r := New(
		FieldSpec{Name: "a", Kind: KindText, MaxLen: 10},
		FieldSpec{Name: "a", Kind: KindNumber, MaxLen: 20},
	)
	assert.Equal(t, []string{"a"}, r.AllFields())

	spec, ok := r.Spec("a")
	require.True(t, ok)
	assert.Equal(t, KindText, spec.Kind, "first declaration wins")
}

func TestEveryRequiredFieldHasPrompt(t *testing.T) {
	r := Default()
	for _, name := range r.RequiredFields() {
		spec, _ := r.Spec(name)
		assert.NotEmpty(t, spec.Prompt, "field %s", name)
	}
}
