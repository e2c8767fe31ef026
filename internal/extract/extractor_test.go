package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spot2/intake-engine/internal/llm"
	"github.com/spot2/intake-engine/internal/model"
	"github.com/spot2/intake-engine/internal/schema"
	"github.com/spot2/intake-engine/pkg/logger"
)

// stubClient returns canned replies, or errors, and records requests.
type stubClient struct {
	replies  []string
	err      error
	requests []*llm.CompletionRequest
}

func (c *stubClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	reply := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return &llm.CompletionResponse{Content: reply}, nil
}

func (c *stubClient) Name() string { return "stub" }

func (c *stubClient) Models() []string { return nil }

func newTestExtractor(client llm.Client, retries int) *Extractor {
	return New(client, schema.Default(), Config{
		Timeout:     time.Second,
		Retries:     retries,
		BackoffWait: time.Millisecond,
	}, logger.NewNop())
}

func newTestSession() *model.Session {
	return &model.Session{
		ID:     "s1",
		Status: model.StatusActive,
		Fields: make(map[string]model.FieldValue),
	}
}

func TestExtractProposesUpdates(t *testing.T) {
	client := &stubClient{replies: []string{`{"fields": {"budget": "500k", "city": "Austin"}}`}}
	e := newTestExtractor(client, 2)

	s := newTestSession()
	turn := s.Append(model.RoleUser, "my budget is 500k, in Austin", false)

	res, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, []CandidateUpdate{
		{Field: "budget", RawValue: "500k"},
		{Field: "city", RawValue: "Austin"},
	}, res.Updates)
}

func TestExtractEmptyFieldsIsNotDegraded(t *testing.T) {
	client := &stubClient{replies: []string{`{"fields": {}}`}}
	e := newTestExtractor(client, 2)

	s := newTestSession()
	turn := s.Append(model.RoleUser, "hello there", false)

	res, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Updates)
	assert.Len(t, client.requests, 1, "a parsable empty reply is not retried")
}

func TestExtractDegradesAfterRetries(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	e := newTestExtractor(client, 2)

	s := newTestSession()
	turn := s.Append(model.RoleUser, "my budget is 500k", false)

	res, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Updates)
	assert.Len(t, client.requests, 3, "initial attempt plus two retries")
}

func TestExtractRetriesUnparsableReply(t *testing.T) {
	client := &stubClient{replies: []string{
		"I could not produce JSON, sorry.",
		`{"fields": {"city": "Berlin"}}`,
	}}
	e := newTestExtractor(client, 2)

	s := newTestSession()
	turn := s.Append(model.RoleUser, "Berlin please", false)

	res, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, []CandidateUpdate{{Field: "city", RawValue: "Berlin"}}, res.Updates)
	assert.Len(t, client.requests, 2)
}

func TestExtractNilClientDegrades(t *testing.T) {
	e := newTestExtractor(nil, 2)

	s := newTestSession()
	turn := s.Append(model.RoleUser, "anything", false)

	res, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestExtractSkipsFlaggedTurns(t *testing.T) {
	client := &stubClient{replies: []string{`{"fields": {}}`}}
	e := newTestExtractor(client, 0)

	s := newTestSession()
	s.Append(model.RoleUser, "<rejected content>", true)
	s.Append(model.RoleAssistant, "please rephrase", false)
	turn := s.Append(model.RoleUser, "a house in Oslo", false)

	_, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	msgs := client.requests[0].Messages
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "<rejected content>")
	}
	assert.Equal(t, "a house in Oslo", msgs[len(msgs)-1].Content)
}

func TestExtractInstructionsListCollectedFields(t *testing.T) {
	client := &stubClient{replies: []string{`{"fields": {}}`}}
	e := newTestExtractor(client, 0)

	s := newTestSession()
	s.Fields["budget"] = model.FieldValue{Field: "budget", Value: "500000", Status: model.FieldValid}
	turn := s.Append(model.RoleUser, "what else do you need?", false)

	_, err := e.Extract(context.Background(), s, turn)
	require.NoError(t, err)

	require.NotEmpty(t, client.requests)
	instructions := client.requests[0].Messages[0].Content
	assert.Contains(t, instructions, "budget: 500000")
	assert.Contains(t, instructions, "property_type")
}
