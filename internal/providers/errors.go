package providers

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

// statusCodes is checked in order; the first code found in the error text wins.
var statusCodes = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusBadRequest,
	http.StatusPaymentRequired,
}

var codeRe = regexp.MustCompile(`\b[1-5]\d\d\b`)

// extractErrorMetadata pulls an HTTP status code and Retry-After value out of an
// SDK error message. The SDKs used here do not expose response headers on errors.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	found := make(map[int]bool)
	for _, m := range codeRe.FindAllString(errStr, -1) {
		n, _ := strconv.Atoi(m)
		found[n] = true
	}

	var httpStatus int
	for _, code := range statusCodes {
		if found[code] {
			httpStatus = code
			break
		}
	}

	var retryAfter string
	lower := strings.ToLower(errStr)
	for _, marker := range []string{"retry-after", "retry after"} {
		idx := strings.Index(lower, marker)
		if idx == -1 {
			continue
		}
		parts := strings.Fields(strings.TrimLeft(errStr[idx+len(marker):], ": "))
		if len(parts) > 0 {
			retryAfter = strings.TrimRight(parts[0], ",;.")
		}
		break
	}

	return httpStatus, retryAfter
}

// wrapError classifies an SDK error for the retry decorator.
func wrapError(provider string, err error) error {
	status, retryAfter := extractErrorMetadata(err)
	return engine.WrapLLMError(fmt.Errorf("%s: %w", provider, err), status, retryAfter)
}
