// Package engine provides agent orchestration functionality.
// This file contains error types and provider error classification.

package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GenerationError reports a failed language model call. It ends the turn.
type GenerationError struct {
	Iteration int
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at iteration %d: %v", e.Iteration, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ToolNotFoundError reports an action naming a tool that is not registered.
// Its message is fed back to the model verbatim.
type ToolNotFoundError struct {
	Name      string
	Available []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found. Available tools: %s", e.Name, strings.Join(e.Available, ", "))
}

// ToolExecutionError reports a tool that failed, panicked or timed out.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("Tool execution error: %v", e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// EngineError wraps provider errors with classification metadata.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsNetwork   bool
	IsAuth      bool
	IsQuota     bool
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ClassifyLLMError classifies an error from an LLM provider call.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}

	errStr := strings.ToLower(err.Error())

	// Rate limit errors (429) - retryable, respect Retry-After
	if containsAny(errStr, "429", "rate limit", "too many requests") {
		return RetryClassRetryable
	}

	// Server errors (5xx)
	if containsAny(errStr, "500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable", "gateway timeout", "overloaded") {
		return RetryClassRetryable
	}

	// Deadline exceeded - maybe (limited retries). Checked before the generic
	// timeout match below.
	if containsAny(errStr, "context deadline exceeded", "deadline exceeded") {
		return RetryClassMaybe
	}

	// Network/timeout errors
	if containsAny(errStr, "timeout", "connection reset", "connection refused",
		"no such host", "network", "dns", "temporary failure", "eof") {
		return RetryClassRetryable
	}

	// Authentication, bad request, quota and safety refusals never succeed on retry.
	if containsAny(errStr, "401", "403", "unauthorized", "forbidden", "invalid api key", "authentication failed",
		"400", "bad request", "invalid request", "malformed",
		"402", "quota", "billing", "payment required",
		"content filter", "safety", "guardrail", "policy violation") {
		return RetryClassNonRetryable
	}

	return RetryClassNonRetryable
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ExtractRetryAfter extracts the Retry-After value from an error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(engineErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, engineErr.RetryAfter); err == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	if i := strings.Index(errStr, "retry after "); i >= 0 {
		var seconds int
		if _, err := fmt.Sscanf(errStr[i:], "retry after %d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

// WrapLLMError wraps an LLM provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}

	class := ClassifyLLMError(err)
	switch {
	case httpStatus == http.StatusTooManyRequests || httpStatus >= 500:
		class = RetryClassRetryable
	case httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden ||
		httpStatus == http.StatusBadRequest || httpStatus == http.StatusPaymentRequired:
		class = RetryClassNonRetryable
	}

	return &EngineError{
		Err:         err,
		Class:       class,
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
		IsQuota:     httpStatus == http.StatusPaymentRequired,
	}
}

// RetryExhaustedError indicates that all retry attempts have been exhausted.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
	IsGuarded   bool // True if this was a "maybe" class error with limited retries
}

func (e *RetryExhaustedError) Error() string {
	if e.IsGuarded {
		return fmt.Sprintf("guarded retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var retryExhausted *RetryExhaustedError
	return errors.As(err, &retryExhausted)
}
