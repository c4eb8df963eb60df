package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/skilltrail/internal/goalchat"
	"github.com/abhisek/skilltrail/internal/goals"
	"github.com/abhisek/skilltrail/internal/knowledge"
	"github.com/abhisek/skilltrail/internal/llm"
	"github.com/abhisek/skilltrail/internal/settings"
	"github.com/abhisek/skilltrail/internal/store"
	"github.com/abhisek/skilltrail/internal/videos"
)

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

const (
	codeNotFound      = "not_found"
	codeInvalid       = "invalid_request"
	codeProviderError = "ai_provider_error"
	codeInternal      = "internal_error"
)

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = llm.PublicMessage(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps a service error to a status code and error code.
func classify(err error) (int, string) {
	var (
		unavailable *llm.ErrProviderUnavailable
		rateLimit   *llm.ErrRateLimit
		exhausted   *llm.ErrRetriesExhausted
		invalid     *llm.ErrInvalidResponse
		maxTokens   *llm.ErrMaxTokensExceeded
	)
	switch {
	case errors.Is(err, goals.ErrNotFound),
		errors.Is(err, videos.ErrNotFound),
		errors.Is(err, knowledge.ErrNodeNotFound),
		errors.Is(err, knowledge.ErrGoalNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, goals.ErrGoalNotArchived),
		errors.Is(err, goals.ErrInvalidStatus),
		errors.Is(err, goals.ErrMissingTitle),
		errors.Is(err, videos.ErrMissingField),
		errors.Is(err, goalchat.ErrEmptyMessage),
		errors.Is(err, settings.ErrInvalidProvider),
		errors.Is(err, settings.ErrUnknownSetting),
		errors.Is(err, settings.ErrMissingAPIKey):
		return http.StatusBadRequest, codeInvalid
	case errors.As(err, &unavailable),
		errors.As(err, &rateLimit),
		errors.As(err, &exhausted),
		errors.As(err, &invalid),
		errors.As(err, &maxTokens):
		return http.StatusBadGateway, codeProviderError
	}
	return http.StatusInternalServerError, codeInternal
}

func (a *API) fail(c *gin.Context, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		a.log.Error(op+" failed", "path", c.FullPath(), "error", err)
	}
	respondError(c, status, code, err)
}

// bindJSON decodes the body into v and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, http.StatusBadRequest, codeInvalid, err)
		return false
	}
	return true
}
