package domain

import (
	"time"
)

// SubjectIdentity is the tracked player. PUUID is resolved lazily on the first
// cycle that needs it and cached for the process lifetime; a failed resolution
// is never cached.
type SubjectIdentity struct {
	Region   string // regional route, e.g. "americas"
	Platform string // platform route, e.g. "na1"
	Name     string
	Tag      string
	PUUID    string
}

func (s SubjectIdentity) RiotID() string {
	return s.Name + "#" + s.Tag
}

// TimeWindow is the activity range for one cycle, always derived from the wall
// clock at cycle-invocation time. Never persisted.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// MatchRecord is one raw match as returned by the provider, fetched fresh each
// cycle and never cached across cycles.
type MatchRecord struct {
	MatchID      string
	CreatedAt    time.Time
	Duration     time.Duration
	QueueID      int
	Participants []ParticipantStat
}

type ParticipantStat struct {
	PUUID        string
	Champion     string
	TeamID       int
	Role         string // TOP, JUNGLE, MIDDLE, BOTTOM, UTILITY; may be empty
	Kills        int
	Deaths       int
	Assists      int
	MinionKills  int
	NeutralKills int
	VisionScore  int
	Win          bool
}

// CreepScore is lane plus jungle creature kills.
func (p ParticipantStat) CreepScore() int {
	return p.MinionKills + p.NeutralKills
}

// MatchSummary is the per-match derived view of the subject's performance.
type MatchSummary struct {
	MatchID     string
	CreatedAt   time.Time
	Duration    time.Duration
	Champion    string
	Role        string
	Kills       int
	Deaths      int
	Assists     int
	KDA         float64
	CreepScore  int
	VisionScore int
	// OpponentChampion is the same-role participant on the opposing team.
	// Empty when the provider supplied no role data for the match.
	OpponentChampion string
	Win              bool
}

type RankSnapshot struct {
	Queue        string
	Tier         string
	Division     string
	LeaguePoints int
	Wins         int
	Losses       int
}

// AggregatedReport is the immutable output of one aggregation pass, consumed
// by both the composer and the chart renderer.
type AggregatedReport struct {
	Subject SubjectIdentity
	Window  TimeWindow
	// Matches preserves the provider's chronological order.
	Matches []MatchSummary
	Wins    int
	Losses  int
	Rank    *RankSnapshot
	// DataQualityEvents counts retained-window matches that were excluded
	// because the subject participant entry was missing.
	DataQualityEvents int
}

type FragmentTone int

const (
	ToneNeutral FragmentTone = iota
	ToneWin
	ToneLoss
)

// ReportFragment is one renderer-agnostic unit of report content. An empty
// window produces a first-class "no activity" fragment rather than nothing, so
// every cycle delivers at least one fragment.
type ReportFragment struct {
	Title string
	Lines []string
	Tone  FragmentTone
}

// CycleKind distinguishes the two scheduled report cycles.
type CycleKind string

const (
	CycleDaily   CycleKind = "daily"
	CycleMonthly CycleKind = "monthly"
)

// CycleRun is one journal entry describing a completed (or failed) cycle.
// Observational only: reports are always recomputed from live provider data.
type CycleRun struct {
	ID         string
	Kind       CycleKind
	Trigger    string // "scheduled" or "manual"
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "ok", "empty", "deferred", "failed"
	Matches    int
	Wins       int
	Losses     int
	Error      string
	CreatedAt  time.Time
}
