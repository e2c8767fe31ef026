package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageText(t *testing.T) {
	assert.NoError(t, ValidateMessageText("hello", 1000))
	assert.NoError(t, ValidateMessageText(strings.Repeat("a", 4000), 1000))

	assert.Error(t, ValidateMessageText("", 1000))
	assert.Error(t, ValidateMessageText(strings.Repeat("a", 4001), 1000))
	assert.Error(t, ValidateMessageText("bad\xff\xfe", 1000))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("abc-123_XYZ"))
	assert.NoError(t, ValidateSessionID("0190c7f2-9b4a-7c3d-8e5f-6a7b8c9d0e1f"))

	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID(strings.Repeat("a", 65)))
	assert.Error(t, ValidateSessionID("has space"))
	assert.Error(t, ValidateSessionID("semi;colon"))
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, ValidateCollectionName("intake-records"))

	assert.Error(t, ValidateCollectionName(""))
	assert.Error(t, ValidateCollectionName("UPPER"))
	assert.Error(t, ValidateCollectionName("dots.not.allowed"))
	assert.Error(t, ValidateCollectionName(strings.Repeat("x", 65)))
}
