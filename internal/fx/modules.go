package fx

import (
	"go.uber.org/fx"

	"lol-reporter/internal/api"
	"lol-reporter/internal/config"
	"lol-reporter/internal/database"
	"lol-reporter/internal/delivery"
	"lol-reporter/internal/logger"
	"lol-reporter/internal/narrative"
	"lol-reporter/internal/repository"
	"lol-reporter/internal/scheduler"
	"lol-reporter/internal/server"
	"lol-reporter/internal/service"

	"github.com/rs/zerolog"
)

func ProvideStatsClient(c *api.RiotClient) service.StatsClient {
	return c
}

func ProvideScheduler(cfg *config.Config, log zerolog.Logger) *scheduler.Scheduler {
	return scheduler.New(cfg.DailyHour, cfg.DailyMinute, cfg.Location, log)
}

func ProvideChain(cfg *config.Config, log zerolog.Logger) (*narrative.Chain, error) {
	backends, err := narrative.BackendsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return narrative.NewChain(backends, log), nil
}

func ProvideTrigger(svc *service.CycleService) delivery.Trigger {
	return svc
}

func ProvideCycleService(
	client service.StatsClient,
	resolver *service.SubjectResolver,
	telegram *delivery.Telegram,
	chain *narrative.Chain,
	journal *repository.JournalRepository,
	cfg *config.Config,
	log zerolog.Logger,
) *service.CycleService {
	return service.NewCycleService(client, resolver, telegram, chain, journal, cfg, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// provider client
	fx.Provide(api.NewRiotClient),
	fx.Provide(ProvideStatsClient),
	// journal
	fx.Provide(repository.NewJournalRepository),
	// pipeline
	fx.Provide(service.NewSubjectResolver),
	fx.Provide(ProvideChain),
	fx.Provide(ProvideCycleService),
	fx.Provide(ProvideTrigger),
	// scheduling + surfaces
	fx.Provide(ProvideScheduler),
	fx.Provide(delivery.NewTelegram),
	fx.Provide(server.NewAdminServer),
)
