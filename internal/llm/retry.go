package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	maxRetries   = 3
	retryBackoff = 10 * time.Second
)

// RetryingGenerator retries calls that failed on provider rate limits
type RetryingGenerator struct {
	next       Generator
	maxRetries int
	backoff    time.Duration
	after      func(time.Duration) <-chan time.Time
}

// WithRetry wraps a generator with the default retry policy
func WithRetry(next Generator) *RetryingGenerator {
	return &RetryingGenerator{
		next:       next,
		maxRetries: maxRetries,
		backoff:    retryBackoff,
		after:      time.After,
	}
}

// GenerateContent calls the wrapped generator, waiting a fixed backoff after each rate limit
func (r *RetryingGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := r.next.GenerateContent(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if !isRateLimitError(err) || attempt >= r.maxRetries {
			return "", err
		}

		log.Ctx(ctx).Warn().Err(err).Int("attempt", attempt+1).Dur("wait", r.backoff).Msg("LLM rate limited, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-r.after(r.backoff):
		}
	}
}

// Close closes the wrapped generator
func (r *RetryingGenerator) Close() error {
	return r.next.Close()
}

// isRateLimitError reports whether err looks like a quota or throttling failure
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resourceexhausted", "resource_exhausted", "resource exhausted", "429", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
