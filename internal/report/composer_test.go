package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lol-reporter/internal/domain"
)

func sampleReport() *domain.AggregatedReport {
	return &domain.AggregatedReport{
		Subject: domain.SubjectIdentity{Name: "Faker", Tag: "KR1"},
		Window: domain.TimeWindow{
			Start: time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC),
		},
		Matches: []domain.MatchSummary{
			{
				MatchID: "m1", Champion: "Azir", Role: "MIDDLE",
				Kills: 7, Deaths: 1, Assists: 4, KDA: 11,
				CreepScore: 240, VisionScore: 21,
				OpponentChampion: "Sylas", Win: true,
				Duration: 28 * time.Minute,
			},
			{
				MatchID: "m2", Champion: "Orianna", Role: "MIDDLE",
				Kills: 2, Deaths: 6, Assists: 9, KDA: 1.83,
				CreepScore: 198, VisionScore: 30, Win: false,
				Duration: 34 * time.Minute,
			},
		},
		Wins:   1,
		Losses: 1,
	}
}

func TestComposeEmitsOneFragmentPerMatchPlusSummary(t *testing.T) {
	fragments := Compose(sampleReport())

	require.Len(t, fragments, 3)
	assert.Equal(t, domain.ToneWin, fragments[0].Tone)
	assert.Contains(t, fragments[0].Title, "Azir")
	assert.Contains(t, fragments[0].Lines[3], "Sylas")
	assert.Equal(t, domain.ToneLoss, fragments[1].Tone)
	assert.Contains(t, fragments[2].Lines[0], "1W - 1L")
}

func TestComposeEmptyWindowEmitsExactlyOneNoActivityFragment(t *testing.T) {
	report := sampleReport()
	report.Matches = nil
	report.Wins, report.Losses = 0, 0

	fragments := Compose(report)

	require.Len(t, fragments, 1)
	assert.Equal(t, domain.ToneNeutral, fragments[0].Tone)
	assert.Contains(t, fragments[0].Lines[0], "No ranked games")
}

func TestSummaryIncludesRankAndDataQuality(t *testing.T) {
	report := sampleReport()
	report.Rank = &domain.RankSnapshot{Tier: "CHALLENGER", Division: "I", LeaguePoints: 1340}
	report.DataQualityEvents = 1

	fragments := Compose(report)
	summary := fragments[len(fragments)-1]

	joined := strings.Join(summary.Lines, "\n")
	assert.Contains(t, joined, "CHALLENGER I")
	assert.Contains(t, joined, "excluded")
}

func TestPromptMentionsEveryMatch(t *testing.T) {
	prompt := Prompt(sampleReport())

	assert.Contains(t, prompt, "Faker#KR1")
	assert.Contains(t, prompt, "Azir")
	assert.Contains(t, prompt, "Orianna")
	assert.Contains(t, prompt, "vs Sylas")
}

func TestPromptEmptyWindow(t *testing.T) {
	report := sampleReport()
	report.Matches = nil

	prompt := Prompt(report)
	assert.Contains(t, prompt, "no ranked games")
}
