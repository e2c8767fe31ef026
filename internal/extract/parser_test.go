package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReplyDirectJSON(t *testing.T) {
	got, err := parseReply(`{"fields": {"budget": "500000", "city": "Austin"}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"budget": "500000", "city": "Austin"}, got)
}

func TestParseReplyFencedJSON(t *testing.T) {
	raw := "Here is what I found:\n```json\n{\"fields\": {\"city\": \"Berlin\"}}\n```\nLet me know if you need more."
	got, err := parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"city": "Berlin"}, got)
}

func TestParseReplyEmbeddedInProse(t *testing.T) {
	raw := `Sure! The extracted fields are {"fields": {"property_type": "house"}} as requested.`
	got, err := parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"property_type": "house"}, got)
}

func TestParseReplyTrailingComma(t *testing.T) {
	got, err := parseReply(`{"fields": {"budget": "750000",}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"budget": "750000"}, got)
}

func TestParseReplyNumericAndBoolValues(t *testing.T) {
	got, err := parseReply(`{"fields": {"total_size": 120, "furnished": true}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"total_size": "120", "furnished": "true"}, got)
}

func TestParseReplyEmptyFields(t *testing.T) {
	got, err := parseReply(`{"fields": {}}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseReplyBOMPrefix(t *testing.T) {
	got, err := parseReply("\ufeff{\"fields\": {\"city\": \"Oslo\"}}")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"city": "Oslo"}, got)
}

func TestParseReplyBracesInStrings(t *testing.T) {
	raw := `prefix {"fields": {"note": "curly } inside"}} suffix`
	got, err := parseReply(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"note": "curly } inside"}, got)
}

func TestParseReplyUnparsable(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{broken", "[1, 2, 3]"} {
		_, err := parseReply(raw)
		assert.Error(t, err, "input: %q", raw)
	}
}
