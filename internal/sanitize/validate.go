package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/spot2/intake-engine/internal/schema"
)

// ValidationResult is the outcome of validating cleaned text against a
// field spec.
type ValidationResult struct {
	Valid      bool
	Normalized string
	Reason     string
}

func rejected(reason string) ValidationResult {
	return ValidationResult{Reason: reason}
}

func valid(normalized string) ValidationResult {
	return ValidationResult{Valid: true, Normalized: normalized}
}

var (
	currencyChars = regexp.MustCompile(`[$€£]|R\$|USD|EUR|GBP`)
	numericForm   = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// magnitude suffixes accepted on money values ("500k", "1.2m").
var magnitudes = map[byte]float64{'k': 1e3, 'K': 1e3, 'm': 1e6, 'M': 1e6}

// Validate checks cleaned text against a field spec and returns either a
// normalized value or a rejection reason. Pure: the result is a function of
// (spec, clean) only.
func Validate(spec schema.FieldSpec, clean string) ValidationResult {
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return rejected("empty value")
	}
	if spec.MaxLen > 0 && len(clean) > spec.MaxLen {
		return rejected("value exceeds maximum length")
	}

	switch spec.Kind {
	case schema.KindMoney:
		return validateNumeric(spec, clean, true)
	case schema.KindNumber:
		return validateNumeric(spec, clean, false)
	case schema.KindEnum:
		return validateEnum(spec, clean)
	case schema.KindText, schema.KindCityName:
		return validateText(spec, clean)
	default:
		return rejected("unsupported kind")
	}
}

func validateNumeric(spec schema.FieldSpec, clean string, money bool) ValidationResult {
	s := clean
	if money {
		s = currencyChars.ReplaceAllString(s, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	mult := 1.0
	if money && len(s) > 1 {
		if m, ok := magnitudes[s[len(s)-1]]; ok {
			mult = m
			s = s[:len(s)-1]
		}
	}

	if !numericForm.MatchString(s) {
		return rejected("not a number")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return rejected("not a number")
	}
	n *= mult
	if n < 0 {
		return rejected("negative value")
	}
	if spec.Min != 0 || spec.Max != 0 {
		if n < spec.Min || n > spec.Max {
			return rejected(fmt.Sprintf("out of range %g..%g", spec.Min, spec.Max))
		}
	}
	return valid(strconv.FormatFloat(n, 'f', -1, 64))
}

func validateEnum(spec schema.FieldSpec, clean string) ValidationResult {
	lower := strings.ToLower(clean)
	if canonical, ok := spec.Aliases[lower]; ok {
		lower = canonical
	}
	for _, allowed := range spec.Allowed {
		if strings.EqualFold(lower, allowed) {
			return valid(allowed)
		}
	}
	return rejected("not an allowed value")
}

func validateText(spec schema.FieldSpec, clean string) ValidationResult {
	if spec.Pattern != nil && !spec.Pattern.MatchString(clean) {
		return rejected("contains disallowed characters")
	}
	if spec.Kind == schema.KindCityName {
		return valid(titleCase(clean))
	}
	return valid(clean)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
