package narrative

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrUnavailable is the sentinel for "every backend failed". Narration is an
// enhancement: callers degrade to the structured report, they never abort.
var ErrUnavailable = errors.New("narrative: no backend available")

// Backend is one substitutable text-generation service.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Chain tries backends strictly in their configured order and stops at the
// first success. Backends are never raced and never retried within one call;
// retry-with-backoff is each backend's own concern.
type Chain struct {
	backends []Backend
	logger   zerolog.Logger
}

func NewChain(backends []Backend, logger zerolog.Logger) *Chain {
	return &Chain{backends: backends, logger: logger}
}

func (c *Chain) Narrate(ctx context.Context, prompt string) (string, error) {
	var failures []error
	for _, backend := range c.backends {
		text, err := backend.Complete(ctx, prompt)
		if err != nil {
			c.logger.Warn().Err(err).Str("backend", backend.Name()).Msg("narrative backend failed, trying next")
			failures = append(failures, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}
		return text, nil
	}
	return "", errors.Join(ErrUnavailable, errors.Join(failures...))
}
