package report

import (
	"fmt"
	"strings"
	"time"

	"lol-reporter/internal/domain"
)

// Compose turns an aggregated report into renderer-agnostic fragments: one per
// match plus a trailing summary. An empty window yields exactly one
// "no activity" fragment so the sink always has something to deliver.
func Compose(report *domain.AggregatedReport) []domain.ReportFragment {
	if len(report.Matches) == 0 {
		return []domain.ReportFragment{noActivityFragment(report)}
	}

	fragments := make([]domain.ReportFragment, 0, len(report.Matches)+1)
	for _, m := range report.Matches {
		fragments = append(fragments, matchFragment(m))
	}
	fragments = append(fragments, summaryFragment(report))
	return fragments
}

func matchFragment(m domain.MatchSummary) domain.ReportFragment {
	result := "Defeat"
	tone := domain.ToneLoss
	if m.Win {
		result = "Victory"
		tone = domain.ToneWin
	}

	lines := []string{
		fmt.Sprintf("KDA: %d/%d/%d (%.2f)", m.Kills, m.Deaths, m.Assists, m.KDA),
		fmt.Sprintf("CS: %d · Vision: %d", m.CreepScore, m.VisionScore),
		fmt.Sprintf("Duration: %s", m.Duration.Round(time.Second)),
	}
	if m.OpponentChampion != "" {
		lines = append(lines, fmt.Sprintf("Lane opponent: %s", m.OpponentChampion))
	}

	return domain.ReportFragment{
		Title: fmt.Sprintf("%s — %s", m.Champion, result),
		Lines: lines,
		Tone:  tone,
	}
}

func summaryFragment(report *domain.AggregatedReport) domain.ReportFragment {
	total := report.Wins + report.Losses
	lines := []string{
		fmt.Sprintf("Record: %dW - %dL (%d games)", report.Wins, report.Losses, total),
	}
	if report.Rank != nil {
		lines = append(lines, fmt.Sprintf("Rank: %s %s, %d LP",
			report.Rank.Tier, report.Rank.Division, report.Rank.LeaguePoints))
	}
	if report.DataQualityEvents > 0 {
		lines = append(lines, fmt.Sprintf("%d match(es) excluded: subject missing from match data", report.DataQualityEvents))
	}

	tone := domain.ToneNeutral
	switch {
	case report.Wins > report.Losses:
		tone = domain.ToneWin
	case report.Losses > report.Wins:
		tone = domain.ToneLoss
	}

	return domain.ReportFragment{
		Title: fmt.Sprintf("%s — %s report", report.Subject.RiotID(), windowLabel(report.Window)),
		Lines: lines,
		Tone:  tone,
	}
}

func noActivityFragment(report *domain.AggregatedReport) domain.ReportFragment {
	return domain.ReportFragment{
		Title: fmt.Sprintf("%s — %s report", report.Subject.RiotID(), windowLabel(report.Window)),
		Lines: []string{"No ranked games played this period."},
		Tone:  domain.ToneNeutral,
	}
}

func windowLabel(w domain.TimeWindow) string {
	return fmt.Sprintf("%s to %s", w.Start.Format("Jan 2"), w.End.Format("Jan 2"))
}

// Prompt builds the narrative request from the same aggregated data the
// fragments are built from.
func Prompt(report *domain.AggregatedReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a blunt League of Legends coach. Critique %s's recent ranked performance in under 120 words.\n",
		report.Subject.RiotID())

	if len(report.Matches) == 0 {
		b.WriteString("They played no ranked games this period. Comment on the absence.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Record: %d wins, %d losses.\n", report.Wins, report.Losses)
	for _, m := range report.Matches {
		result := "lost"
		if m.Win {
			result = "won"
		}
		fmt.Fprintf(&b, "- %s %s %d/%d/%d, %d CS", m.Champion, result, m.Kills, m.Deaths, m.Assists, m.CreepScore)
		if m.OpponentChampion != "" {
			fmt.Fprintf(&b, " vs %s", m.OpponentChampion)
		}
		b.WriteString("\n")
	}
	return b.String()
}
