package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// InvalidKind distinguishes unparseable output from parseable output that
// violates the schema.
type InvalidKind int

const (
	InvalidJSON InvalidKind = iota
	SchemaMismatch
)

func (k InvalidKind) String() string {
	if k == InvalidJSON {
		return "invalid JSON"
	}
	return "schema-invalid JSON"
}

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Kind    InvalidKind
	Content json.RawMessage
	// Issues lists individual validation failures for SchemaMismatch.
	Issues []string
	Err    error
}

func (e *ErrInvalidResponse) Error() string {
	if len(e.Issues) > 0 {
		return fmt.Sprintf("invalid LLM response (%s): %s", e.Kind, strings.Join(e.Issues, "; "))
	}
	return fmt.Sprintf("invalid LLM response (%s): %v", e.Kind, e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrRetriesExhausted is returned by WithCorrectiveRetry when every
// attempt produced an invalid response.
type ErrRetriesExhausted struct {
	Attempts int
	Last     *ErrInvalidResponse
}

func (e *ErrRetriesExhausted) Error() string {
	if e.Last.Kind == InvalidJSON {
		return fmt.Sprintf("AI returned invalid JSON after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("AI response validation failed after %d attempts: %s",
		e.Attempts, strings.Join(e.Last.Issues, "; "))
}

func (e *ErrRetriesExhausted) Unwrap() error { return e.Last }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ProviderFailureMessage replaces provider transport and auth errors in
// anything shown to a client. The upstream text can carry response bodies
// and key fragments, so it only goes to the log.
const ProviderFailureMessage = "AI provider request failed"

// PublicMessage returns the client-facing text for err.
func PublicMessage(err error) string {
	var (
		unavailable *ErrProviderUnavailable
		rateLimit   *ErrRateLimit
	)
	if errors.As(err, &unavailable) || errors.As(err, &rateLimit) {
		return ProviderFailureMessage
	}
	return err.Error()
}

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// parseRetryAfter reads retry-after-ms or retry-after (seconds or an HTTP
// date). Zero means the header was absent or unusable.
func parseRetryAfter(h http.Header) time.Duration {
	if ms, err := strconv.ParseFloat(h.Get("Retry-After-Ms"), 64); err == nil && ms > 0 {
		return time.Duration(ms * float64(time.Millisecond))
	}
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
