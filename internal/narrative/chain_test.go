package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestNarrateFirstSuccessWins(t *testing.T) {
	first := &fakeBackend{name: "a", text: "from a"}
	second := &fakeBackend{name: "b", text: "from b"}
	chain := NewChain([]Backend{first, second}, zerolog.Nop())

	text, err := chain.Narrate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "from a", text)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "later backends must not be consulted after a success")
}

func TestNarrateFallsBackInOrder(t *testing.T) {
	first := &fakeBackend{name: "a", err: errors.New("boom")}
	second := &fakeBackend{name: "b", text: "from b"}
	chain := NewChain([]Backend{first, second}, zerolog.Nop())

	text, err := chain.Narrate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "from b", text)
	assert.Equal(t, 1, first.calls, "failed backend is not retried within one call")
	assert.Equal(t, 1, second.calls)
}

func TestNarrateExhaustionReturnsSentinel(t *testing.T) {
	first := &fakeBackend{name: "a", err: errors.New("down")}
	second := &fakeBackend{name: "b", err: errors.New("also down")}
	chain := NewChain([]Backend{first, second}, zerolog.Nop())

	_, err := chain.Narrate(context.Background(), "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNarrateEmptyChainIsUnavailable(t *testing.T) {
	chain := NewChain(nil, zerolog.Nop())

	_, err := chain.Narrate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnavailable)
}
