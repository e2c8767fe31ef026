package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeCleansMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "I need an apartment in Berlin", "I need an apartment in Berlin"},
		{"html tags stripped", "I need a <b>big</b> house", "I need a big house"},
		{"control chars stripped", "budget\x00 is\x1f 500000", "budget is 500000"},
		{"whitespace collapsed", "around   500   square meters", "around 500 square meters"},
		{"leading and trailing trimmed", "  Hamburg  ", "Hamburg"},
		{"empty passes through", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input, 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeRejectsDangerousContent(t *testing.T) {
	inputs := []string{
		"<script>alert('x')</script>",
		"< SCRIPT >alert(1)</script>",
		"<iframe src='http://evil'>",
		"javascript:alert(1)",
		"onload=steal()",
		"eval(document.cookie)",
		"'; DROP TABLE users; SELECT * FROM secrets",
		"process.env.SECRET",
		"\\u0041\\u0042 smuggled",
		"&#x3c;script&#x3e;",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Sanitize(input, 1000)
			assert.ErrorIs(t, err, ErrUnsafeInput)
		})
	}
}

func TestSanitizeEnforcesMaxLength(t *testing.T) {
	_, err := Sanitize(strings.Repeat("a", 1001), 1000)
	assert.ErrorIs(t, err, ErrOversizedInput)

	got, err := Sanitize(strings.Repeat("a", 1000), 1000)
	require.NoError(t, err)
	assert.Len(t, got, 1000)
}

func TestSanitizeIsDeterministic(t *testing.T) {
	input := "a <b>mixed</b>   input with  spaces"
	first, err := Sanitize(input, 1000)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Sanitize(input, 1000)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}
