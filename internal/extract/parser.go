package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// reply is the structured shape requested from the model.
type reply struct {
	Fields map[string]any `json:"fields"`
}

var (
	fencedJSON    = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// parseReply parses the model's reply into field name/value pairs. Models
// wrap JSON in markdown fences or prose often enough that direct
// unmarshaling is only the first attempt.
func parseReply(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	if raw == "" {
		return nil, fmt.Errorf("empty reply")
	}

	for _, candidate := range jsonCandidates(raw) {
		var r reply
		if err := json.Unmarshal([]byte(candidate), &r); err != nil {
			continue
		}
		return stringify(r.Fields), nil
	}
	return nil, fmt.Errorf("no parsable JSON in reply: %.80s", raw)
}

// jsonCandidates yields progressively more aggressive extractions of a JSON
// object from the raw reply.
func jsonCandidates(raw string) []string {
	var out []string
	out = append(out, raw)

	if m := fencedJSON.FindStringSubmatch(raw); len(m) > 1 {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if obj := balancedObject(raw[start:]); obj != "" {
			out = append(out, obj)
		}
	}

	// Retry each candidate with trailing commas removed.
	for _, c := range out {
		if fixed := trailingComma.ReplaceAllString(c, "$1"); fixed != c {
			out = append(out, fixed)
		}
	}
	return out
}

// balancedObject returns the first brace-balanced object in s, respecting
// string literals and escapes.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escape := false
	for i, ch := range s {
		switch {
		case escape:
			escape = false
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// stringify flattens JSON values to strings; numbers keep their literal
// form, nested structures are dropped.
func stringify(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields))
	for name, v := range fields {
		switch t := v.(type) {
		case string:
			out[name] = t
		case float64:
			b, _ := json.Marshal(t)
			out[name] = string(b)
		case bool:
			if t {
				out[name] = "true"
			} else {
				out[name] = "false"
			}
		}
	}
	return out
}
