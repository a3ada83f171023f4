package engine

import "time"

// Config holds the loop limits of an Engine.
type Config struct {
	// MaxHistory is the number of recent exchanges sent to the model; the
	// last MaxHistory*2 history messages are included. Zero or less sends
	// the whole history.
	MaxHistory int
	// MaxIterations caps generate calls per Chat. Zero or less answers with
	// the fallback text without calling the model.
	MaxIterations int
	// IterationTimeout bounds each generate and tool call. Zero disables it.
	IterationTimeout time.Duration
	// Stop sequences forwarded to the model.
	Stop []string
}

// DefaultConfig returns the stock loop limits.
func DefaultConfig() Config {
	return Config{
		MaxHistory:    5,
		MaxIterations: 3,
	}
}

// DefaultRetryPolicy returns sensible default retry settings for model calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}
