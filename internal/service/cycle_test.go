package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lol-reporter/internal/api"
	"lol-reporter/internal/domain"
)

type fakeSink struct {
	mu        sync.Mutex
	texts     []string
	fragments []domain.ReportFragment
	files     []string
	sendErr   error
}

func (f *fakeSink) SendText(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeSink) SendFragment(ctx context.Context, fragment domain.ReportFragment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.fragments = append(f.fragments, fragment)
	return nil
}

func (f *fakeSink) SendFile(ctx context.Context, data []byte, filename, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.files = append(f.files, filename)
	return nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f *fakeNarrator) Narrate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeJournal struct {
	mu   sync.Mutex
	runs []domain.CycleRun
}

func (f *fakeJournal) Record(ctx context.Context, run domain.CycleRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeJournal) last(t *testing.T) domain.CycleRun {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.runs)
	return f.runs[len(f.runs)-1]
}

func matchResponse(id string, queue int, durationSec int64, win bool) *api.MatchResponse {
	resp := &api.MatchResponse{}
	resp.Metadata.MatchID = id
	resp.Info.GameCreation = time.Now().Add(-2 * time.Hour).UnixMilli()
	resp.Info.GameDuration = durationSec
	resp.Info.QueueID = queue
	resp.Info.Participants = []api.MatchParticipant{
		{Puuid: "resolved-puuid", ChampionName: "Ahri", TeamID: 100, TeamPosition: "MIDDLE", Kills: 3, Deaths: 1, Assists: 7, Win: win},
		{Puuid: "enemy", ChampionName: "Zed", TeamID: 200, TeamPosition: "MIDDLE", Win: !win},
	}
	return resp
}

func newTestService(client *fakeStatsClient, sink *fakeSink, narrator *fakeNarrator, journal *fakeJournal) *CycleService {
	cfg := testConfig()
	resolver := NewSubjectResolver(client, cfg, zerolog.Nop())
	svc := NewCycleService(client, resolver, sink, narrator, journal, cfg, zerolog.Nop())
	svc.render = func(wins, losses int, title string) ([]byte, error) {
		return []byte{0x89, 'P', 'N', 'G'}, nil
	}
	return svc
}

func TestDailyCycleDeliversFragmentsNarrativeAndChart(t *testing.T) {
	client := &fakeStatsClient{
		matchIDs: []string{"m1", "m2"},
		matches: map[string]*api.MatchResponse{
			"m1": matchResponse("m1", 420, 1800, true),
			"m2": matchResponse("m2", 420, 2100, false),
		},
		entries: []api.LeagueEntry{{QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 54}},
	}
	sink := &fakeSink{}
	journal := &fakeJournal{}
	svc := newTestService(client, sink, &fakeNarrator{text: "solid laning, sloppy mid game"}, journal)

	require.NoError(t, svc.RunDaily(context.Background()))

	// Two match fragments plus the summary.
	assert.Len(t, sink.fragments, 3)
	assert.Contains(t, sink.texts, "solid laning, sloppy mid game")
	require.Len(t, sink.files, 1)
	assert.True(t, strings.HasPrefix(sink.files[0], "winloss-daily-"))

	run := journal.last(t)
	assert.Equal(t, "ok", run.Status)
	assert.Equal(t, 2, run.Matches)
	assert.Equal(t, 1, run.Wins)
	assert.Equal(t, 1, run.Losses)
}

func TestCycleDegradesWhenAllNarrativeBackendsFail(t *testing.T) {
	client := &fakeStatsClient{
		matchIDs: []string{"m1"},
		matches:  map[string]*api.MatchResponse{"m1": matchResponse("m1", 420, 1800, true)},
	}
	sink := &fakeSink{}
	svc := newTestService(client, sink, &fakeNarrator{err: errors.New("all backends down")}, &fakeJournal{})

	require.NoError(t, svc.RunDaily(context.Background()))

	// Structured report still lands, narration silently degrades.
	assert.NotEmpty(t, sink.fragments)
	assert.Empty(t, sink.texts)
}

func TestCycleDegradesWhenChartRenderFails(t *testing.T) {
	client := &fakeStatsClient{
		matchIDs: []string{"m1"},
		matches:  map[string]*api.MatchResponse{"m1": matchResponse("m1", 420, 1800, true)},
	}
	sink := &fakeSink{}
	svc := newTestService(client, sink, &fakeNarrator{text: "fine"}, &fakeJournal{})
	svc.render = func(int, int, string) ([]byte, error) { return nil, errors.New("render blew up") }

	require.NoError(t, svc.RunDaily(context.Background()))

	assert.NotEmpty(t, sink.fragments)
	assert.Empty(t, sink.files)
}

func TestEmptyWindowStillDeliversOneFragment(t *testing.T) {
	client := &fakeStatsClient{}
	sink := &fakeSink{}
	journal := &fakeJournal{}
	svc := newTestService(client, sink, &fakeNarrator{text: "take a break, apparently you did"}, journal)

	require.NoError(t, svc.RunDaily(context.Background()))

	require.Len(t, sink.fragments, 1)
	assert.Contains(t, sink.fragments[0].Lines[0], "No ranked games")
	assert.Empty(t, sink.files, "no chart without games")
	assert.Equal(t, "empty", journal.last(t).Status)
}

func TestIdentityNotFoundAbortsCycleWithMessage(t *testing.T) {
	client := &fakeStatsClient{accountErr: api.ErrNotFound}
	sink := &fakeSink{}
	journal := &fakeJournal{}
	svc := newTestService(client, sink, &fakeNarrator{}, journal)

	err := svc.RunDaily(context.Background())

	require.ErrorIs(t, err, api.ErrNotFound)
	require.NotEmpty(t, sink.texts)
	assert.Contains(t, sink.texts[0], "subject name and tag")
	assert.Equal(t, "failed", journal.last(t).Status)
}

func TestRateLimitDefersCycleWithoutFailure(t *testing.T) {
	client := &fakeStatsClient{matchIDsErr: &api.RateLimitedError{RetryAfter: 30 * time.Second}}
	sink := &fakeSink{}
	journal := &fakeJournal{}
	svc := newTestService(client, sink, &fakeNarrator{}, journal)

	require.NoError(t, svc.RunDaily(context.Background()), "rate limiting is not a cycle failure")

	require.NotEmpty(t, sink.texts)
	assert.Contains(t, sink.texts[0], "rate limit")
	assert.Equal(t, "deferred", journal.last(t).Status)
}

func TestSingleMatchFetchFailureIsSkipped(t *testing.T) {
	client := &fakeStatsClient{
		matchIDs: []string{"m1", "gone"},
		matches:  map[string]*api.MatchResponse{"m1": matchResponse("m1", 420, 1800, true)},
	}
	sink := &fakeSink{}
	journal := &fakeJournal{}
	svc := newTestService(client, sink, &fakeNarrator{text: "ok"}, journal)

	require.NoError(t, svc.RunDaily(context.Background()))

	assert.Equal(t, 1, journal.last(t).Matches)
}

func TestMonthlyWindowIsPreviousCalendarMonth(t *testing.T) {
	client := &fakeStatsClient{}
	svc := newTestService(client, &fakeSink{}, &fakeNarrator{text: "x"}, &fakeJournal{})

	now := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	window := svc.window(domain.CycleMonthly, now)

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), window.Start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), window.End)
	assert.False(t, window.End.After(now), "window end never exceeds the invocation instant")
}
