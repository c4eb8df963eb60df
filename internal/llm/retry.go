package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/skilltrail/internal/metrics"
)

// DefaultMaxRetries is the corrective re-prompt budget for JSON-mode
// providers: 3 attempts in total.
const DefaultMaxRetries = 2

// CorrectiveRetryProvider is a decorator for providers that only
// guarantee syntactically valid JSON. It validates each response and,
// when the output is unusable, feeds it back to the model together with
// a corrective instruction before trying again.
type CorrectiveRetryProvider struct {
	inner      Provider
	maxRetries int
}

// WithCorrectiveRetry wraps a JSON-mode Provider with validate-and-retry.
// A negative maxRetries selects DefaultMaxRetries.
func WithCorrectiveRetry(p Provider, maxRetries int) Provider {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &CorrectiveRetryProvider{inner: p, maxRetries: maxRetries}
}

func (r *CorrectiveRetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Schema == nil {
		return r.inner.Generate(ctx, req)
	}

	// The caller's slice is never appended to.
	history := append([]Message(nil), req.Messages...)
	var last *ErrInvalidResponse

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.LLMCorrectiveRetries.WithLabelValues(PurposeFrom(ctx)).Inc()
		}

		attemptReq := req
		attemptReq.Messages = history
		resp, err := r.inner.Generate(withAttempt(ctx, attempt+1), attemptReq)
		if err != nil {
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				// Transport and provider failures are not retried here.
				return nil, err
			}
			last = inv
		} else if err := validateResponse(req.Schema, resp.Content); err != nil {
			last = err.(*ErrInvalidResponse)
		} else {
			return resp, nil
		}

		history = append(history,
			Message{Role: RoleAssistant, Content: string(last.Content)},
			Message{Role: RoleUser, Content: correctiveMessage(last)},
		)
	}

	return nil, &ErrRetriesExhausted{Attempts: r.maxRetries + 1, Last: last}
}

func (r *CorrectiveRetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func correctiveMessage(inv *ErrInvalidResponse) string {
	if inv.Kind == InvalidJSON {
		return "Your previous response was not valid JSON. Respond again with a single valid JSON object only, with no surrounding text or code fences."
	}
	var b strings.Builder
	b.WriteString("Your previous response did not match the required JSON schema. Fix these issues and respond again with the corrected JSON object only:\n")
	for _, issue := range inv.Issues {
		fmt.Fprintf(&b, "- %s\n", issue)
	}
	return strings.TrimRight(b.String(), "\n")
}
