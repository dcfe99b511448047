package aggregate

import (
	"time"

	"lol-reporter/internal/domain"
)

// Options filter the raw record stream before reduction.
type Options struct {
	// RankedQueues is the set of queue ids retained.
	RankedQueues map[int]bool
	// MinDuration excludes remakes and early surrenders when > 0.
	MinDuration time.Duration
}

// Aggregate reduces raw match records into the report for one window. It is a
// pure function of its inputs: no I/O, no shared state, idempotent.
//
// Records missing a participant entry for puuid are excluded and counted as
// data-quality events rather than treated as fatal; a correctly-windowed query
// should never produce one. The provider's chronological order is preserved.
func Aggregate(records []domain.MatchRecord, puuid string, opts Options) *domain.AggregatedReport {
	report := &domain.AggregatedReport{}

	for _, record := range records {
		if !opts.RankedQueues[record.QueueID] {
			continue
		}
		if opts.MinDuration > 0 && record.Duration < opts.MinDuration {
			continue
		}

		subject, ok := findParticipant(record.Participants, puuid)
		if !ok {
			report.DataQualityEvents++
			continue
		}

		summary := domain.MatchSummary{
			MatchID:          record.MatchID,
			CreatedAt:        record.CreatedAt,
			Duration:         record.Duration,
			Champion:         subject.Champion,
			Role:             subject.Role,
			Kills:            subject.Kills,
			Deaths:           subject.Deaths,
			Assists:          subject.Assists,
			KDA:              kda(subject.Kills, subject.Deaths, subject.Assists),
			CreepScore:       subject.CreepScore(),
			VisionScore:      subject.VisionScore,
			OpponentChampion: opposingChampion(record.Participants, subject),
			Win:              subject.Win,
		}
		report.Matches = append(report.Matches, summary)

		if subject.Win {
			report.Wins++
		} else {
			report.Losses++
		}
	}

	return report
}

// kda computes (kills+assists)/deaths, with zero deaths counted as one. The
// divisor substitution is the reporting policy for "perfect" games, not a
// guard bolted on to dodge division by zero.
func kda(kills, deaths, assists int) float64 {
	divisor := deaths
	if divisor == 0 {
		divisor = 1
	}
	return float64(kills+assists) / float64(divisor)
}

func findParticipant(participants []domain.ParticipantStat, puuid string) (domain.ParticipantStat, bool) {
	for _, p := range participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return domain.ParticipantStat{}, false
}

// opposingChampion is the same-role participant on the other team. When the
// provider supplied no role data the opponent stays empty; it is never guessed.
func opposingChampion(participants []domain.ParticipantStat, subject domain.ParticipantStat) string {
	if subject.Role == "" {
		return ""
	}
	for _, p := range participants {
		if p.TeamID != subject.TeamID && p.Role == subject.Role {
			return p.Champion
		}
	}
	return ""
}
