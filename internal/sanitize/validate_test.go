package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spot2/intake-engine/internal/schema"
)

func defaultSpec(t *testing.T, name string) schema.FieldSpec {
	t.Helper()
	spec, ok := schema.Default().Spec(name)
	if !ok {
		t.Fatalf("no spec for %q", name)
	}
	return spec
}

func TestValidateMoney(t *testing.T) {
	spec := defaultSpec(t, "budget")

	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"500000", "500000", true},
		{"500k", "500000", true},
		{"1.5m", "1500000", true},
		{"$1,200,000", "1200000", true},
		{"€750000", "750000", true},
		{"1000000000", "1000000000", true},
		{"9999", "", false},         // below minimum
		{"2000000000", "", false},   // above maximum
		{"five hundred", "", false}, // not a number
		{"", "", false},             // empty
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Validate(spec, tt.input)
			assert.Equal(t, tt.valid, got.Valid, "reason: %s", got.Reason)
			if tt.valid {
				assert.Equal(t, tt.want, got.Normalized)
			} else {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestValidateNumber(t *testing.T) {
	spec := defaultSpec(t, "total_size")

	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"120", "120", true},
		{"120.5", "120.5", true},
		{"1,200", "1200", true},
		{"10", "10", true},
		{"10000", "10000", true},
		{"9", "", false},
		{"10001", "", false},
		{"120k", "", false}, // magnitude suffixes are money-only
		{"big", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Validate(spec, tt.input)
			assert.Equal(t, tt.valid, got.Valid, "reason: %s", got.Reason)
			if tt.valid {
				assert.Equal(t, tt.want, got.Normalized)
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	spec := defaultSpec(t, "property_type")

	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"apartment", "apartment", true},
		{"APARTMENT", "apartment", true},
		{"house", "house", true},
		{"commercial", "commercial", true},
		{"retail", "commercial", true},
		{"Office", "commercial", true},
		{"warehouse", "commercial", true},
		{"flat", "apartment", true},
		{"condo", "apartment", true},
		{"castle", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Validate(spec, tt.input)
			assert.Equal(t, tt.valid, got.Valid, "reason: %s", got.Reason)
			if tt.valid {
				assert.Equal(t, tt.want, got.Normalized)
			}
		})
	}
}

func TestValidateCityName(t *testing.T) {
	spec := defaultSpec(t, "city")

	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{"Austin", "Austin", true},
		{"austin", "Austin", true},
		{"new york", "New York", true},
		{"Saint-Denis", "Saint-denis", true},
		{"O'Fallon", "O'fallon", true},
		{"City123", "", false},
		{"a<b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Validate(spec, tt.input)
			assert.Equal(t, tt.valid, got.Valid, "reason: %s", got.Reason)
			if tt.valid {
				assert.Equal(t, tt.want, got.Normalized)
			}
		})
	}
}

func TestValidateUnsupportedKind(t *testing.T) {
	got := Validate(schema.FieldSpec{Name: "x", Kind: schema.Kind("mystery")}, "value")
	assert.False(t, got.Valid)
	assert.Equal(t, "unsupported kind", got.Reason)
}

func TestValidateFieldMaxLength(t *testing.T) {
	spec := defaultSpec(t, "city")
	got := Validate(spec, "Llanfairpwllgwyngyllgogerychwyrndrobwllllantysiliogogogoch City")
	assert.False(t, got.Valid)
}
