package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lol-reporter/internal/aggregate"
	"lol-reporter/internal/api"
	"lol-reporter/internal/chart"
	"lol-reporter/internal/config"
	"lol-reporter/internal/constants"
	"lol-reporter/internal/delivery"
	"lol-reporter/internal/domain"
	"lol-reporter/internal/report"
)

// Narrator is the narrative fallback chain boundary.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Journal records cycle outcomes; failures to journal are logged, never fatal.
type Journal interface {
	Record(ctx context.Context, run domain.CycleRun) error
}

// CycleService runs one report cycle end to end: fetch, aggregate, compose,
// then narration and chart in parallel, delivering each producer's output
// independently. Producer failures degrade the report; only identity
// resolution and match listing abort a cycle, and never the scheduler.
type CycleService struct {
	client   StatsClient
	resolver *SubjectResolver
	sink     delivery.Sink
	narrator Narrator
	journal  Journal
	logger   zerolog.Logger

	opts aggregate.Options
	loc  *time.Location

	// render is swapped in tests.
	render func(wins, losses int, title string) ([]byte, error)
	now    func() time.Time
}

func NewCycleService(
	client StatsClient,
	resolver *SubjectResolver,
	sink delivery.Sink,
	narrator Narrator,
	journal Journal,
	cfg *config.Config,
	logger zerolog.Logger,
) *CycleService {
	return &CycleService{
		client:   client,
		resolver: resolver,
		sink:     sink,
		narrator: narrator,
		journal:  journal,
		logger:   logger,
		opts: aggregate.Options{
			RankedQueues: cfg.RankedQueues,
			MinDuration:  cfg.MinMatchDuration,
		},
		loc:    cfg.Location,
		render: chart.RenderWinLoss,
		now:    time.Now,
	}
}

// RunDaily and RunMonthly are the manual trigger surface (delivery.Trigger).
func (s *CycleService) RunDaily(ctx context.Context) error {
	return s.run(ctx, domain.CycleDaily, "manual")
}

func (s *CycleService) RunMonthly(ctx context.Context) error {
	return s.run(ctx, domain.CycleMonthly, "manual")
}

// ScheduledDaily and ScheduledMonthly adapt the pipeline to scheduler.CycleFn:
// errors are contained here so no cycle failure can reach the run loop.
func (s *CycleService) ScheduledDaily(ctx context.Context) {
	s.runScheduled(ctx, domain.CycleDaily)
}

func (s *CycleService) ScheduledMonthly(ctx context.Context) {
	s.runScheduled(ctx, domain.CycleMonthly)
}

func (s *CycleService) runScheduled(ctx context.Context, kind domain.CycleKind) {
	ctx, cancel := context.WithTimeout(ctx, constants.CycleTimeout)
	defer cancel()

	if err := s.run(ctx, kind, "scheduled"); err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("scheduled cycle failed; next cycle retries naturally")
	}
}

func (s *CycleService) run(ctx context.Context, kind domain.CycleKind, trigger string) error {
	started := s.now()
	window := s.window(kind, started)

	s.logger.Info().
		Str("kind", string(kind)).
		Str("trigger", trigger).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Msg("cycle started")

	run := domain.CycleRun{Kind: kind, Trigger: trigger, StartedAt: started}
	defer func() {
		run.FinishedAt = s.now()
		if err := s.journal.Record(context.WithoutCancel(ctx), run); err != nil {
			s.logger.Warn().Err(err).Msg("failed to journal cycle run")
		}
	}()

	subject, err := s.resolver.Resolve(ctx)
	if err != nil {
		return s.abort(ctx, &run, err, fmt.Sprintf("Could not resolve %s.", s.resolver.base.RiotID()))
	}

	ids, err := s.client.MatchIDs(ctx, subject.PUUID, window, constants.MatchIDPageSize)
	if err != nil {
		return s.abort(ctx, &run, err, "Could not list recent matches.")
	}

	records := s.fetchMatches(ctx, ids)

	aggregated := aggregate.Aggregate(records, subject.PUUID, s.opts)
	aggregated.Subject = subject
	aggregated.Window = window
	aggregated.Rank = s.rankSnapshot(ctx, subject.PUUID)

	if aggregated.DataQualityEvents > 0 {
		s.logger.Warn().Int("count", aggregated.DataQualityEvents).Msg("matches excluded: subject participant missing")
	}

	for _, fragment := range report.Compose(aggregated) {
		if err := s.sink.SendFragment(ctx, fragment); err != nil {
			s.logger.Error().Err(err).Str("fragment", fragment.Title).Msg("fragment delivery failed")
		}
	}

	// Narration and chart have no ordering constraint between them; each one
	// degrades on its own without touching the other or the cycle.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.narrate(gCtx, aggregated)
		return nil
	})
	g.Go(func() error {
		s.renderChart(gCtx, aggregated, kind)
		return nil
	})
	_ = g.Wait()

	run.Matches = len(aggregated.Matches)
	run.Wins = aggregated.Wins
	run.Losses = aggregated.Losses
	run.Status = "ok"
	if len(aggregated.Matches) == 0 {
		run.Status = "empty"
	}

	s.logger.Info().
		Str("kind", string(kind)).
		Int("matches", run.Matches).
		Int("wins", run.Wins).
		Int("losses", run.Losses).
		Msg("cycle completed")
	return nil
}

// abort classifies a pipeline-heading failure per the error taxonomy: rate
// limits defer the cycle (informational, not a failure), everything else
// aborts it with a user-visible message. The scheduler keeps running either
// way.
func (s *CycleService) abort(ctx context.Context, run *domain.CycleRun, err error, userMsg string) error {
	var rateLimited *api.RateLimitedError
	if errors.As(err, &rateLimited) {
		run.Status = "deferred"
		run.Error = err.Error()
		s.logger.Info().Dur("retry_after", rateLimited.RetryAfter).Msg("provider rate limited, deferring cycle")
		s.sendText(ctx, fmt.Sprintf("Report deferred: provider rate limit, retry in %s.", rateLimited.RetryAfter))
		return nil
	}

	run.Status = "failed"
	run.Error = err.Error()
	if errors.Is(err, api.ErrNotFound) {
		s.sendText(ctx, userMsg+" Check the configured subject name and tag.")
	} else {
		s.sendText(ctx, userMsg+" The provider seems unavailable; the next cycle retries.")
	}
	return err
}

// fetchMatches fetches match details in the provider's id order. A single
// failed fetch is logged and skipped; it does not abort the cycle.
func (s *CycleService) fetchMatches(ctx context.Context, ids []string) []domain.MatchRecord {
	records := make([]domain.MatchRecord, 0, len(ids))
	for _, id := range ids {
		resp, err := s.client.Match(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("match_id", id).Msg("skipping match: fetch failed")
			continue
		}
		records = append(records, resp.ToDomain())
	}
	return records
}

// rankSnapshot is best effort; a failure yields no snapshot, never an error.
func (s *CycleService) rankSnapshot(ctx context.Context, puuid string) *domain.RankSnapshot {
	entries, err := s.client.LeagueEntries(ctx, puuid)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rank snapshot unavailable")
		return nil
	}
	for _, entry := range entries {
		if entry.QueueType == "RANKED_SOLO_5x5" {
			return &domain.RankSnapshot{
				Queue:        entry.QueueType,
				Tier:         entry.Tier,
				Division:     entry.Rank,
				LeaguePoints: entry.LeaguePoints,
				Wins:         entry.Wins,
				Losses:       entry.Losses,
			}
		}
	}
	return nil
}

func (s *CycleService) narrate(ctx context.Context, aggregated *domain.AggregatedReport) {
	ctx, cancel := context.WithTimeout(ctx, constants.NarrativeTimeout)
	defer cancel()

	text, err := s.narrator.Narrate(ctx, report.Prompt(aggregated))
	if err != nil {
		// Narration is an enhancement; the structured report already went out.
		s.logger.Warn().Err(err).Msg("narrative unavailable, delivering structured report only")
		return
	}
	s.sendText(ctx, text)
}

func (s *CycleService) renderChart(ctx context.Context, aggregated *domain.AggregatedReport, kind domain.CycleKind) {
	total := aggregated.Wins + aggregated.Losses
	if total == 0 {
		return
	}

	title := fmt.Sprintf("%s — %s win/loss", aggregated.Subject.RiotID(), kind)
	img, err := s.render(aggregated.Wins, aggregated.Losses, title)
	if err != nil {
		s.logger.Error().Err(err).Msg("chart render failed, delivering text-only report")
		return
	}

	filename := fmt.Sprintf("winloss-%s-%s.png", kind, aggregated.Window.End.Format("2006-01-02"))
	caption := fmt.Sprintf("%dW - %dL", aggregated.Wins, aggregated.Losses)
	if err := s.sink.SendFile(ctx, img, filename, caption); err != nil {
		s.logger.Error().Err(err).Msg("chart delivery failed")
	}
}

func (s *CycleService) sendText(ctx context.Context, text string) {
	if err := s.sink.SendText(ctx, text); err != nil {
		s.logger.Error().Err(err).Msg("text delivery failed")
	}
}

// window derives the cycle's activity range from the invocation instant:
// the trailing day for daily cycles, the previous calendar month for monthly
// ones (monthly cycles fire on the first, so months tile without overlap).
func (s *CycleService) window(kind domain.CycleKind, now time.Time) domain.TimeWindow {
	now = now.In(s.loc)
	if kind == domain.CycleMonthly {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
		return domain.TimeWindow{Start: monthStart.AddDate(0, -1, 0), End: monthStart}
	}
	return domain.TimeWindow{Start: now.Add(-24 * time.Hour), End: now}
}
