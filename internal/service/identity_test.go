package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lol-reporter/internal/api"
	"lol-reporter/internal/config"
	"lol-reporter/internal/domain"
)

type fakeStatsClient struct {
	accountCalls atomic.Int64
	accountErr   error

	matchIDs    []string
	matchIDsErr error
	matches     map[string]*api.MatchResponse
	matchErr    error
	entries     []api.LeagueEntry
	entriesErr  error
}

func (f *fakeStatsClient) AccountByRiotID(ctx context.Context, name, tag string) (*api.AccountResponse, error) {
	f.accountCalls.Add(1)
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &api.AccountResponse{Puuid: "resolved-puuid", GameName: name, TagLine: tag}, nil
}

func (f *fakeStatsClient) MatchIDs(ctx context.Context, puuid string, window domain.TimeWindow, count int) ([]string, error) {
	if f.matchIDsErr != nil {
		return nil, f.matchIDsErr
	}
	return f.matchIDs, nil
}

func (f *fakeStatsClient) Match(ctx context.Context, matchID string) (*api.MatchResponse, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	if m, ok := f.matches[matchID]; ok {
		return m, nil
	}
	return nil, api.ErrNotFound
}

func (f *fakeStatsClient) LeagueEntries(ctx context.Context, puuid string) ([]api.LeagueEntry, error) {
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	return f.entries, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Region:           "americas",
		Platform:         "na1",
		SubjectName:      "Faker",
		SubjectTag:       "KR1",
		RankedQueues:     map[int]bool{420: true, 440: true},
		MinMatchDuration: 10 * time.Minute,
		Location:         time.UTC,
	}
}

func TestResolveOnceUnderConcurrency(t *testing.T) {
	client := &fakeStatsClient{}
	resolver := NewSubjectResolver(client, testConfig(), zerolog.Nop())

	const goroutines = 16
	var wg sync.WaitGroup
	results := make([]domain.SubjectIdentity, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity, err := resolver.Resolve(context.Background())
			assert.NoError(t, err)
			results[i] = identity
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, client.accountCalls.Load(), "identity must be resolved exactly once")
	for _, identity := range results {
		assert.Equal(t, "resolved-puuid", identity.PUUID)
	}
}

func TestResolveFailureIsNotCached(t *testing.T) {
	client := &fakeStatsClient{accountErr: api.ErrNotFound}
	resolver := NewSubjectResolver(client, testConfig(), zerolog.Nop())

	_, err := resolver.Resolve(context.Background())
	require.ErrorIs(t, err, api.ErrNotFound)

	// Subject appears later (e.g. a typo fixed upstream): the retry succeeds.
	client.accountErr = nil
	identity, err := resolver.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resolved-puuid", identity.PUUID)
	assert.EqualValues(t, 2, client.accountCalls.Load())
}
