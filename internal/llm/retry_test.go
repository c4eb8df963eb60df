package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatSchema() *Schema {
	return &Schema{
		Name:        "retry-test-chat",
		Description: "chat reply",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type":    map[string]any{"type": "string", "enum": []any{"chat", "tree_generation"}},
				"message": map[string]any{"type": "string"},
			},
			"required":             []any{"type", "message"},
			"additionalProperties": false,
		},
	}
}

func chatRequest() Request {
	return Request{
		System:   "You are a learning coach.",
		Messages: []Message{{Role: RoleUser, Content: "I want to learn Go."}},
		Schema:   chatSchema(),
	}
}

const validChat = `{"type":"chat","message":"Great, what do you know already?"}`

func TestCorrectiveRetry_SucceedsOnFirstAttempt(t *testing.T) {
	mock := NewMockProvider(MockJSON(validChat))
	p := WithCorrectiveRetry(mock, 2)

	resp, err := p.Generate(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.JSONEq(t, validChat, string(resp.Content))
	assert.Equal(t, 1, mock.CallCount())
}

func TestCorrectiveRetry_InvalidThenSchemaInvalidThenValid(t *testing.T) {
	responses := func() []MockResponse {
		return []MockResponse{
			MockJSON(`not json at all`),
			MockJSON(`{"type":"chat"`),
			MockJSON(`{"type":"essay","message":"hi"}`),
			MockJSON(validChat),
		}
	}

	t.Run("budget of two retries is exhausted", func(t *testing.T) {
		mock := NewMockProvider(responses()...)
		p := WithCorrectiveRetry(mock, 2)

		_, err := p.Generate(context.Background(), chatRequest())
		var exhausted *ErrRetriesExhausted
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.Equal(t, SchemaMismatch, exhausted.Last.Kind)
		assert.True(t, strings.HasPrefix(err.Error(), "AI response validation failed after 3 attempts: "))
		assert.Equal(t, 3, mock.CallCount())
	})

	t.Run("budget of three retries succeeds", func(t *testing.T) {
		mock := NewMockProvider(responses()...)
		p := WithCorrectiveRetry(mock, 3)

		resp, err := p.Generate(context.Background(), chatRequest())
		require.NoError(t, err)
		assert.JSONEq(t, validChat, string(resp.Content))
		require.Equal(t, 4, mock.CallCount())

		// Original message plus one (assistant, corrective user) pair per
		// failed attempt.
		final := mock.Calls[3].Messages
		require.Len(t, final, 7)
		assert.Equal(t, "I want to learn Go.", final[0].Content)
		for i := 1; i < 7; i += 2 {
			assert.Equal(t, RoleAssistant, final[i].Role)
			assert.Equal(t, RoleUser, final[i+1].Role)
		}
		assert.Equal(t, "not json at all", final[1].Content)
		assert.Contains(t, final[2].Content, "not valid JSON")
		assert.Contains(t, final[6].Content, "did not match the required JSON schema")
		assert.Contains(t, final[6].Content, "\n- ")
	})
}

func TestCorrectiveRetry_InvalidJSONExhaustedMessage(t *testing.T) {
	mock := NewMockProvider(MockJSON(`{`), MockJSON(`{`))
	p := WithCorrectiveRetry(mock, 1)

	_, err := p.Generate(context.Background(), chatRequest())
	require.Error(t, err)
	assert.Equal(t, "AI returned invalid JSON after 2 attempts", err.Error())
}

func TestCorrectiveRetry_TransportErrorNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("connection refused")}},
		MockJSON(validChat),
	)
	p := WithCorrectiveRetry(mock, 2)

	_, err := p.Generate(context.Background(), chatRequest())
	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail)
	assert.Equal(t, 1, mock.CallCount())
}

func TestCorrectiveRetry_DoesNotMutateCallerMessages(t *testing.T) {
	mock := NewMockProvider(MockJSON(`nope`), MockJSON(validChat))
	p := WithCorrectiveRetry(mock, 2)

	req := chatRequest()
	_, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, req.Messages, 1)
	assert.Len(t, mock.Calls[0].Messages, 1)
	assert.Len(t, mock.Calls[1].Messages, 3)
}

func TestCorrectiveRetry_AttemptInContext(t *testing.T) {
	var attempts []int
	inner := providerFunc(func(ctx context.Context, req Request) (*Response, error) {
		attempts = append(attempts, AttemptFrom(ctx))
		if len(attempts) < 3 {
			return &Response{Content: []byte(`[]`)}, nil
		}
		return &Response{Content: []byte(validChat)}, nil
	})

	_, err := WithCorrectiveRetry(inner, 2).Generate(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestCorrectiveRetry_NoSchemaPassesThrough(t *testing.T) {
	mock := NewMockProvider(MockJSON(`"free text"`))
	p := WithCorrectiveRetry(mock, 2)

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, `"free text"`, string(resp.Content))
}

func TestCorrectiveRetry_NegativeBudgetUsesDefault(t *testing.T) {
	p := WithCorrectiveRetry(NewMockProvider(), -1).(*CorrectiveRetryProvider)
	assert.Equal(t, DefaultMaxRetries, p.maxRetries)
}

func TestCorrectiveRetry_ModelIDDelegates(t *testing.T) {
	p := WithCorrectiveRetry(NewMockProvider(), 2)
	assert.Equal(t, "mock", p.ModelID())
}

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
func (f providerFunc) ModelID() string { return "func" }
