package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, calculateDelay(policy, 0, errors.New("503")))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(policy, 2, errors.New("503")))
	assert.Equal(t, time.Second, calculateDelay(policy, 10, errors.New("503")))

	policy.Jitter = true
	for range 50 {
		d := calculateDelay(policy, 1, errors.New("503"))
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.LessOrEqual(t, d, 240*time.Millisecond)
	}
}

func TestRetryWithPolicy(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 1}

	calls := 0
	out, err := RetryWithPolicy(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("502 bad gateway")
		}
		return "ok", nil
	}, ClassifyLLMError, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = RetryWithPolicy(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		return "", errors.New("401 unauthorized")
	}, ClassifyLLMError, nil)
	require.Error(t, err)
	assert.False(t, IsRetryExhausted(err))
	assert.Equal(t, 1, calls)

	var retries []int
	_, err = RetryWithPolicy(context.Background(), policy, func(context.Context) (string, error) {
		return "", errors.New("503 service unavailable")
	}, ClassifyLLMError, func(attempt int, _ time.Duration, _ error) {
		retries = append(retries, attempt)
	})
	assert.True(t, IsRetryExhausted(err))
	assert.Equal(t, []int{1, 2, 3}, retries)
}
