// Package extract adapts an external language model into schema-constrained
// field updates.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/llm"
	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/schema"
	"github.com/spot2/intake-engine/pkg/logger"
	"github.com/spot2/intake-engine/pkg/metrics"
)

// CandidateUpdate is one field update proposed by the model, not yet
// validated.
type CandidateUpdate struct {
	Field    string
	RawValue string
}

// Result is the outcome of one extraction attempt. Degraded means the
// external call failed after retries; the conversation continues without
// field updates.
type Result struct {
	Updates  []CandidateUpdate
	Degraded bool
}

// Config controls extraction behavior.
type Config struct {
	Model       string
	Timeout     time.Duration
	Retries     int
	MaxHistory  int
	BackoffWait time.Duration
}

// Extractor sends conversation context plus the schema to an LLM and parses
// the structured reply. Retry/timeout policy for the external call lives
// here and nowhere else.
type Extractor struct {
	client   llm.Client
	registry *schema.Registry
	cfg      Config
	logger   *logger.Logger
}

// New creates an extractor.
func New(client llm.Client, registry *schema.Registry, cfg Config, log *logger.Logger) *Extractor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BackoffWait == 0 {
		cfg.BackoffWait = 500 * time.Millisecond
	}
	if cfg.MaxHistory == 0 {
		cfg.MaxHistory = 20
	}
	return &Extractor{client: client, registry: registry, cfg: cfg, logger: log}
}

// Extract proposes field updates for the latest user turn. A reply that
// parses but contains no fields is a valid empty result, not a failure;
// only transport errors and unparsable output are retried.
func (e *Extractor) Extract(ctx context.Context, session *model.Session, latest model.Turn) (Result, error) {
	if e.client == nil {
		return Result{Degraded: true}, nil
	}

	req := &llm.CompletionRequest{
		Model:    e.cfg.Model,
		Messages: e.buildMessages(session, latest),
	}

	var fields map[string]string
	provider := e.client.Name()

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()

		start := time.Now()
		resp, err := e.client.Complete(attemptCtx, req)
		if err != nil {
			metrics.ObserveExtraction(provider, "error", time.Since(start).Seconds())
			return fmt.Errorf("completion: %w", err)
		}

		parsed, err := parseReply(resp.Content)
		if err != nil {
			metrics.ObserveExtraction(provider, "unparsable", time.Since(start).Seconds())
			return fmt.Errorf("parse: %w", err)
		}

		metrics.ObserveExtraction(provider, "ok", time.Since(start).Seconds())
		fields = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.cfg.BackoffWait), uint64(e.cfg.Retries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		e.logger.Warn("extraction degraded",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return Result{Degraded: true}, nil
	}

	return Result{Updates: toUpdates(fields)}, nil
}

// buildMessages composes the context window: extraction instructions with
// the schema, the most recent turns, and the latest user message.
func (e *Extractor) buildMessages(session *model.Session, latest model.Turn) []llm.ChatMessage {
	msgs := []llm.ChatMessage{{Role: "user", Content: e.instructions(session)}}

	history := session.History
	if len(history) > e.cfg.MaxHistory {
		history = history[len(history)-e.cfg.MaxHistory:]
	}
	for _, t := range history {
		if t.Seq == latest.Seq || t.Flagged {
			continue
		}
		msgs = append(msgs, llm.ChatMessage{Role: string(t.Role), Content: t.Text})
	}

	msgs = append(msgs, llm.ChatMessage{Role: "user", Content: latest.Text})
	return msgs
}

func (e *Extractor) instructions(session *model.Session) string {
	var b strings.Builder
	b.WriteString("You extract real-estate requirements from a conversation. ")
	b.WriteString("Reply with a single JSON object of the form {\"fields\": {...}} ")
	b.WriteString("containing only values the user actually stated. Known fields:\n")

	for _, name := range e.registry.AllFields() {
		spec, _ := e.registry.Spec(name)
		b.WriteString(fmt.Sprintf("- %s (%s)", spec.Name, spec.Kind))
		if len(spec.Allowed) > 0 {
			b.WriteString(": one of " + strings.Join(spec.Allowed, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("Other attributes the user volunteers may be returned under their own names.\n")

	if collected := session.ValidFields(); len(collected) > 0 {
		b.WriteString("Already collected, do not ask again:\n")
		names := make([]string, 0, len(collected))
		for name := range collected {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("- %s: %s\n", name, collected[name]))
		}
	}
	return b.String()
}

func toUpdates(fields map[string]string) []CandidateUpdate {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	updates := make([]CandidateUpdate, 0, len(names))
	for _, name := range names {
		updates = append(updates, CandidateUpdate{Field: name, RawValue: fields[name]})
	}
	return updates
}
