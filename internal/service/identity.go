package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"lol-reporter/internal/api"
	"lol-reporter/internal/config"
	"lol-reporter/internal/domain"
)

// StatsClient is the slice of the stats provider the report pipeline consumes.
// Rate-limit retry mechanics live behind it; this side only distinguishes the
// outcome kinds.
type StatsClient interface {
	AccountByRiotID(ctx context.Context, name, tag string) (*api.AccountResponse, error)
	MatchIDs(ctx context.Context, puuid string, window domain.TimeWindow, count int) ([]string, error)
	Match(ctx context.Context, matchID string) (*api.MatchResponse, error)
	LeagueEntries(ctx context.Context, puuid string) ([]api.LeagueEntry, error)
}

// SubjectResolver resolves the configured subject's PUUID exactly once and
// serves it read-only afterwards. The mutex is held across the provider call,
// so concurrent manual and scheduled cycles cannot race a double resolution.
// A failed resolution is returned, never cached: the next cycle retries.
type SubjectResolver struct {
	client StatsClient
	base   domain.SubjectIdentity
	logger zerolog.Logger

	mu       sync.Mutex
	resolved *domain.SubjectIdentity
}

func NewSubjectResolver(client StatsClient, cfg *config.Config, logger zerolog.Logger) *SubjectResolver {
	return &SubjectResolver{
		client: client,
		base: domain.SubjectIdentity{
			Region:   cfg.Region,
			Platform: cfg.Platform,
			Name:     cfg.SubjectName,
			Tag:      cfg.SubjectTag,
		},
		logger: logger,
	}
}

func (r *SubjectResolver) Resolve(ctx context.Context) (domain.SubjectIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		return *r.resolved, nil
	}

	account, err := r.client.AccountByRiotID(ctx, r.base.Name, r.base.Tag)
	if err != nil {
		return domain.SubjectIdentity{}, err
	}

	identity := r.base
	identity.PUUID = account.Puuid
	// The provider's casing is canonical.
	if account.GameName != "" {
		identity.Name = account.GameName
	}
	if account.TagLine != "" {
		identity.Tag = account.TagLine
	}

	r.resolved = &identity
	r.logger.Info().Str("riot_id", identity.RiotID()).Msg("subject identity resolved")
	return identity, nil
}
