// Package sanitize provides pure input cleaning and field validation.
//
// Every function in this package is deterministic and side-effect free:
// identical inputs always produce identical outputs.
package sanitize

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnsafeInput is returned when input matches the dangerous-content
// denylist and no safe cleaned form can be produced.
var ErrUnsafeInput = errors.New("unsafe input")

// ErrOversizedInput is returned when input exceeds the configured limit.
var ErrOversizedInput = errors.New("input exceeds maximum length")

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
	eventAttrs   = regexp.MustCompile(`(?i)on\w+\s*=\s*"[^"]*"`)
	jsURLs       = regexp.MustCompile(`(?i)javascript:`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
)

// dangerousPatterns is the denylist of content that fails sanitization
// outright. Matching input is rejected, never best-effort cleaned.
var dangerousPatterns = []*regexp.Regexp{
	// script/markup injection
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)<\s*(iframe|embed|object|applet)`),
	regexp.MustCompile(`(?i)(javascript|vbscript|data)\s*:`),
	regexp.MustCompile(`(?i)on(load|error|click|mouseover)\s*=`),

	// code execution attempts
	regexp.MustCompile(`(?i)\b(eval|exec|execute|system|subprocess)\s*\(`),
	regexp.MustCompile(`(?i)\b(bash|shell|cmd)\s*\(`),
	regexp.MustCompile(`(?i)process\.env`),

	// SQL injection tokens
	regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|alter)\b.*\b(from|into|table)\b`),
	regexp.MustCompile(`(?i)(--|;--|/\*|\*/)\s*$`),

	// escape / unicode smuggling
	regexp.MustCompile(`\\[ux][0-9a-fA-F]{2,6}`),
	regexp.MustCompile(`&#x?[0-9a-fA-F]{2,6};`),
}

// Sanitize cleans raw user text: strips control characters and HTML markup,
// collapses runs of whitespace, and enforces maxLen. It fails closed: text
// matching the dangerous-content denylist is rejected rather than cleaned.
func Sanitize(raw string, maxLen int) (string, error) {
	if raw == "" {
		return "", nil
	}
	if maxLen > 0 && len(raw) > maxLen {
		return "", ErrOversizedInput
	}
	for _, p := range dangerousPatterns {
		if p.MatchString(raw) {
			return "", ErrUnsafeInput
		}
	}

	clean := controlChars.ReplaceAllString(raw, "")
	clean = eventAttrs.ReplaceAllString(clean, "")
	clean = htmlTags.ReplaceAllString(clean, "")
	clean = jsURLs.ReplaceAllString(clean, "")
	clean = multiSpace.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean), nil
}
