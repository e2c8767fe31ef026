package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/schema"
)

// Assistant replies are synthesized locally so the conversation stays
// deterministic for a given session state.

const (
	replyRephrase = "Sorry, I couldn't process that message. Could you rephrase it? I'm here to help with your real estate requirements."

	replyAbandoned = "This conversation has been going for a while without wrapping up, so I've closed it. Please start a new session to continue."

	replySavePending = "I have everything I need, but I couldn't save your requirements just now. Please send any message and I'll try again."
)

// askReply builds the targeted question for the next missing field,
// acknowledging any fields accepted this turn.
func askReply(accepted []model.FieldValue, next schema.FieldSpec) string {
	var b strings.Builder
	if ack := acknowledge(accepted); ack != "" {
		b.WriteString(ack)
		b.WriteString(" ")
	}
	b.WriteString(next.Prompt)
	return b.String()
}

// confirmReply builds the completion confirmation listing every collected
// field in a stable order.
func confirmReply(s *model.Session) string {
	fields := s.ValidFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", displayName(name), fields[name]))
	}
	return fmt.Sprintf("Great, I have everything I need — %s. Your requirements have been saved.", strings.Join(parts, ", "))
}

func acknowledge(accepted []model.FieldValue) string {
	if len(accepted) == 0 {
		return ""
	}
	var parts []string
	for _, fv := range accepted {
		parts = append(parts, fmt.Sprintf("%s: %s", displayName(fv.Field), fv.Value))
	}
	return fmt.Sprintf("Got it — %s.", strings.Join(parts, ", "))
}

func displayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
