// Package service implements the conversation state machine for
// requirements intake.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/docstore"
	"github.com/spot2/intake-engine/internal/extract"
	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/sanitize"
	"github.com/spot2/intake-engine/internal/schema"
	"github.com/spot2/intake-engine/internal/session"
	"github.com/spot2/intake-engine/pkg/logger"
	"github.com/spot2/intake-engine/pkg/metrics"
)

// ErrSessionNotActive is returned when a message arrives for a completed or
// abandoned session.
var ErrSessionNotActive = errors.New("session not active")

// Extractor proposes candidate field updates for the latest user turn. The
// LLM round trip lives behind this interface so it can be swapped with a
// deterministic stub in tests.
type Extractor interface {
	Extract(ctx context.Context, s *model.Session, latest model.Turn) (extract.Result, error)
}

// AuditPublisher receives turns and lifecycle events. Publishing is
// best-effort; failures are logged and never fail the conversation.
type AuditPublisher interface {
	PublishTurn(ctx context.Context, sessionID string, turn model.Turn) (uint64, error)
	PublishEvent(ctx context.Context, event model.SessionEvent) (uint64, error)
}

// Limits are the immutable bounds the engine operates under.
type Limits struct {
	MaxPromptLength  int
	MaxFieldLength   int
	MaxHistoryLength int
	SaveTimeout      time.Duration
	IdleTimeout      time.Duration
}

// Intake owns per-session state and drives the collect-validate-complete
// loop. Each session processes at most one message at a time; sessions
// share no mutable state with each other.
type Intake struct {
	registry  *schema.Registry
	store     session.Store
	extractor Extractor
	gateway   docstore.Gateway
	audit     AuditPublisher
	limits    Limits
	logger    *logger.Logger
}

// NewIntake creates the intake service. audit may be nil.
func NewIntake(
	registry *schema.Registry,
	store session.Store,
	extractor Extractor,
	gateway docstore.Gateway,
	audit AuditPublisher,
	limits Limits,
	log *logger.Logger,
) *Intake {
	if limits.MaxPromptLength == 0 {
		limits.MaxPromptLength = 1000
	}
	if limits.MaxFieldLength == 0 {
		limits.MaxFieldLength = 100
	}
	if limits.MaxHistoryLength == 0 {
		limits.MaxHistoryLength = 20
	}
	if limits.SaveTimeout == 0 {
		limits.SaveTimeout = 5 * time.Second
	}
	return &Intake{
		registry:  registry,
		store:     store,
		extractor: extractor,
		gateway:   gateway,
		audit:     audit,
		limits:    limits,
		logger:    log,
	}
}

// HandleMessage processes one user message for a session. Concurrent calls
// for the same session are rejected with session.ErrBusy, never interleaved.
func (i *Intake) HandleMessage(ctx context.Context, sessionID, text string) (*model.HandleMessageResult, error) {
	if err := i.store.TryLock(sessionID); err != nil {
		return nil, err
	}
	defer i.store.Unlock(sessionID)

	s, err := i.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log := i.logger.WithSession(s.ID)

	if s.Status != model.StatusActive {
		log.Info("message rejected, session not active", zap.String("status", string(s.Status)))
		return i.result(s, "", false), ErrSessionNotActive
	}

	// The history bound covers whole user/assistant pairs. A turn that
	// would overflow it ends the session before any extraction runs.
	if len(s.History)+2 > i.limits.MaxHistoryLength {
		i.abandon(ctx, s, "history bound exceeded")
		if err := i.store.Put(ctx, s); err != nil {
			return nil, err
		}
		return i.result(s, replyAbandoned, false), nil
	}

	clean, err := sanitize.Sanitize(text, i.limits.MaxPromptLength)
	if err != nil {
		return i.rejectInput(ctx, s, text, err)
	}

	userTurn := s.Append(model.RoleUser, clean, false)
	i.publishTurn(ctx, s.ID, userTurn)
	metrics.TurnsTotal.WithLabelValues(string(model.RoleUser)).Inc()

	res, err := i.extractor.Extract(ctx, s, userTurn)
	if err != nil {
		// The extractor degrades rather than erroring; anything else is a
		// programming error upstream.
		log.Error("extractor returned error", zap.Error(err))
		res = extract.Result{Degraded: true}
	}

	// A session abandoned while the extraction call was in flight discards
	// the result.
	if s.Status != model.StatusActive {
		return i.result(s, "", res.Degraded), ErrSessionNotActive
	}

	accepted := i.applyUpdates(s, res.Updates, userTurn.Seq)

	if res.Degraded {
		i.publishEvent(ctx, s.ID, model.EventTypeDegraded, "extraction degraded")
	}

	if IsComplete(i.registry, s) {
		return i.finalize(ctx, s, accepted, res.Degraded)
	}

	next, _ := NextMissing(i.registry, s)
	reply := askReply(accepted, next)
	i.appendAssistant(ctx, s, reply)

	if err := i.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return i.result(s, reply, res.Degraded), nil
}

// Abandon explicitly ends a session, for example on owner-driven idle
// timeout. Safe to call while a message is in flight: the per-session lock
// serializes it with HandleMessage.
func (i *Intake) Abandon(ctx context.Context, sessionID string) error {
	if err := i.store.TryLock(sessionID); err != nil {
		return err
	}
	defer i.store.Unlock(sessionID)

	s, err := i.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != model.StatusActive {
		return ErrSessionNotActive
	}
	i.abandon(ctx, s, "abandoned by owner")
	return i.store.Put(ctx, s)
}

// Get returns a read-only view of a session. It takes the per-session lock
// so the view is a consistent snapshot that never races with message
// handling; a session mid-message reports busy instead.
func (i *Intake) Get(ctx context.Context, sessionID string) (*model.SessionView, error) {
	if err := i.store.TryLock(sessionID); err != nil {
		return nil, err
	}
	defer i.store.Unlock(sessionID)

	s, err := i.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &model.SessionView{
		ID:           s.ID,
		Status:       s.Status,
		Fields:       s.ValidFields(),
		Extra:        copyStrings(s.Extra),
		TurnCount:    len(s.History),
		RecordID:     s.RecordID,
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		LastActivity: s.LastActivity.Format(time.RFC3339),
	}, nil
}

func (i *Intake) loadOrCreate(ctx context.Context, sessionID string) (*model.Session, error) {
	s, err := i.store.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		now := time.Now()
		s = &model.Session{
			ID:           sessionID,
			Status:       model.StatusActive,
			Fields:       make(map[string]model.FieldValue),
			Extra:        make(map[string]string),
			CreatedAt:    now,
			LastActivity: now,
		}
		if err := i.store.Put(ctx, s); err != nil {
			return nil, err
		}
		metrics.SessionsTotal.WithLabelValues(string(model.StatusActive)).Inc()
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	if s.Status == model.StatusActive && i.limits.IdleTimeout > 0 &&
		time.Since(s.LastActivity) > i.limits.IdleTimeout {
		i.abandon(ctx, s, "idle timeout")
		if err := i.store.Put(ctx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// rejectInput handles unsafe or oversized raw input: the user turn is
// appended flagged, no field state advances, and the user is re-prompted.
func (i *Intake) rejectInput(ctx context.Context, s *model.Session, raw string, cause error) (*model.HandleMessageResult, error) {
	metrics.UnsafeInputsTotal.Inc()
	i.logger.WithSession(s.ID).Warn("input rejected at sanitize step",
		zap.Error(cause),
		zap.Int("raw_len", len(raw)),
	)

	flagged := raw
	if len(flagged) > i.limits.MaxPromptLength {
		flagged = flagged[:i.limits.MaxPromptLength]
	}
	turn := s.Append(model.RoleUser, flagged, true)
	i.publishTurn(ctx, s.ID, turn)
	i.publishEvent(ctx, s.ID, model.EventTypeRejectedInput, cause.Error())

	i.appendAssistant(ctx, s, replyRephrase)
	if err := i.store.Put(ctx, s); err != nil {
		return nil, err
	}
	return i.result(s, replyRephrase, false), nil
}

// applyUpdates validates candidate updates against the schema and stores
// the outcomes. Schema fields keep only valid values in the field map;
// every attempt lands in the audit trail. Unknown names become extra
// fields after sanitization.
func (i *Intake) applyUpdates(s *model.Session, updates []extract.CandidateUpdate, turnSeq int) []model.FieldValue {
	var accepted []model.FieldValue

	for _, u := range updates {
		spec, known := i.registry.Spec(u.Field)
		if !known {
			i.storeExtra(s, u, turnSeq)
			continue
		}

		clean, err := sanitize.Sanitize(u.RawValue, i.limits.MaxFieldLength)
		var fv model.FieldValue
		if err != nil {
			fv = model.FieldValue{
				Field:   u.Field,
				Raw:     u.RawValue,
				Status:  model.FieldRejected,
				Reason:  err.Error(),
				TurnSeq: turnSeq,
			}
		} else {
			vr := sanitize.Validate(spec, clean)
			fv = model.FieldValue{
				Field:   u.Field,
				Raw:     u.RawValue,
				Value:   vr.Normalized,
				Status:  model.FieldRejected,
				Reason:  vr.Reason,
				TurnSeq: turnSeq,
			}
			if vr.Valid {
				fv.Status = model.FieldValid
				fv.Reason = ""
			}
		}

		s.Audit = append(s.Audit, fv)
		metrics.RecordValidation(u.Field, string(fv.Status))

		if !fv.IsValid() {
			continue
		}

		// Re-supplying an identical valid value only refreshes the source
		// turn index; supersession otherwise replaces the prior value.
		if prev, ok := s.Fields[u.Field]; ok && prev.IsValid() &&
			prev.Raw == fv.Raw && prev.Value == fv.Value {
			prev.TurnSeq = turnSeq
			s.Fields[u.Field] = prev
			continue
		}
		s.Fields[u.Field] = fv
		accepted = append(accepted, fv)
	}
	return accepted
}

// storeExtra keeps a user-volunteered attribute outside the schema. Extra
// values are sanitized but never type-validated, so their audit entries
// stay pending.
func (i *Intake) storeExtra(s *model.Session, u extract.CandidateUpdate, turnSeq int) {
	name := normalizeExtraName(u.Field)
	if name == "" {
		return
	}
	clean, err := sanitize.Sanitize(u.RawValue, i.limits.MaxFieldLength)
	if err != nil || clean == "" {
		return
	}
	s.Extra[name] = clean
	s.Audit = append(s.Audit, model.FieldValue{
		Field:   name,
		Raw:     u.RawValue,
		Value:   clean,
		Status:  model.FieldPending,
		TurnSeq: turnSeq,
	})
}

// finalize couples completion with persistence: the session becomes
// complete only after the save is acknowledged. On storage failure the
// session stays active with its field map intact so the save can be
// retried.
func (i *Intake) finalize(ctx context.Context, s *model.Session, accepted []model.FieldValue, degraded bool) (*model.HandleMessageResult, error) {
	saveCtx, cancel := context.WithTimeout(ctx, i.limits.SaveTimeout)
	defer cancel()

	completedAt := time.Now()
	recordID, err := i.gateway.Save(saveCtx, s.Snapshot(completedAt))
	if err != nil {
		i.logger.WithSession(s.ID).Error("save failed, session stays active", zap.Error(err))
		i.publishEvent(ctx, s.ID, model.EventTypeSaveFailed, err.Error())

		i.appendAssistant(ctx, s, replySavePending)
		if putErr := i.store.Put(ctx, s); putErr != nil {
			return nil, putErr
		}
		return i.result(s, replySavePending, degraded), fmt.Errorf("finalize: %w", err)
	}

	s.Status = model.StatusComplete
	s.RecordID = recordID
	metrics.SessionsTotal.WithLabelValues(string(model.StatusComplete)).Inc()

	reply := confirmReply(s)
	i.appendAssistant(ctx, s, reply)
	i.publishEvent(ctx, s.ID, model.EventTypeCompleted, "")

	if err := i.store.Put(ctx, s); err != nil {
		return nil, err
	}

	i.logger.WithSession(s.ID).Info("session complete",
		zap.String("record_id", recordID),
		zap.Int("turns", len(s.History)),
	)
	return i.result(s, reply, degraded), nil
}

func (i *Intake) abandon(ctx context.Context, s *model.Session, reason string) {
	s.Status = model.StatusAbandoned
	s.LastActivity = time.Now()
	metrics.SessionsTotal.WithLabelValues(string(model.StatusAbandoned)).Inc()
	i.publishEvent(ctx, s.ID, model.EventTypeAbandoned, reason)
	i.logger.WithSession(s.ID).Info("session abandoned", zap.String("reason", reason))
}

func (i *Intake) appendAssistant(ctx context.Context, s *model.Session, reply string) {
	turn := s.Append(model.RoleAssistant, reply, false)
	i.publishTurn(ctx, s.ID, turn)
	metrics.TurnsTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
}

func (i *Intake) publishTurn(ctx context.Context, sessionID string, turn model.Turn) {
	if i.audit == nil {
		return
	}
	if _, err := i.audit.PublishTurn(ctx, sessionID, turn); err != nil {
		i.logger.WithSession(sessionID).Warn("audit publish failed", zap.Error(err))
	}
}

func (i *Intake) publishEvent(ctx context.Context, sessionID string, t model.EventType, reason string) {
	if i.audit == nil {
		return
	}
	event := model.SessionEvent{
		SessionID: sessionID,
		Type:      t,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
	if _, err := i.audit.PublishEvent(ctx, event); err != nil {
		i.logger.WithSession(sessionID).Warn("audit publish failed", zap.Error(err))
	}
}

// result snapshots the session into a response while the per-session lock
// is still held. Fields and Extra are copies: the caller encodes them after
// the lock is released, concurrently with the next message.
func (i *Intake) result(s *model.Session, reply string, degraded bool) *model.HandleMessageResult {
	return &model.HandleMessageResult{
		Reply:    reply,
		Status:   s.Status,
		Fields:   s.ValidFields(),
		Extra:    copyStrings(s.Extra),
		RecordID: s.RecordID,
		Degraded: degraded,
	}
}

func copyStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NewSessionID generates an opaque session id for callers that do not
// supply their own.
func NewSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

var extraNameChars = strings.NewReplacer(" ", "_", "-", "_")

func normalizeExtraName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = extraNameChars.Replace(name)
	if len(name) == 0 || len(name) > 64 {
		return ""
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return ""
		}
	}
	return name
}
