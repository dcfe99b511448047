package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"lol-reporter/internal/api"
	"lol-reporter/internal/constants"
	"lol-reporter/internal/delivery"
	"lol-reporter/internal/domain"
	"lol-reporter/internal/repository"
	"lol-reporter/internal/scheduler"
)

// AdminServer is the operator HTTP surface: manual cycle triggers plus
// read-only schedule, rate-limit and journal views. Trigger endpoints map 1:1
// onto the cycle handlers, exactly like the chat commands.
type AdminServer struct {
	trigger delivery.Trigger
	sched   *scheduler.Scheduler
	riot    *api.RiotClient
	journal *repository.JournalRepository
	logger  zerolog.Logger
}

func NewAdminServer(
	trigger delivery.Trigger,
	sched *scheduler.Scheduler,
	riot *api.RiotClient,
	journal *repository.JournalRepository,
	logger zerolog.Logger,
) *AdminServer {
	return &AdminServer{trigger: trigger, sched: sched, riot: riot, journal: journal, logger: logger}
}

func (s *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/cycles/daily", s.handleCycle(domain.CycleDaily))
	mux.HandleFunc("POST /admin/cycles/monthly", s.handleCycle(domain.CycleMonthly))
	mux.HandleFunc("GET /admin/schedule", s.handleSchedule)
	mux.HandleFunc("GET /admin/ratelimit", s.handleRateLimit)
	mux.HandleFunc("GET /admin/journal", s.handleJournal)
}

func (s *AdminServer) handleCycle(kind domain.CycleKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Info().Str("kind", string(kind)).Msg("manual cycle requested via admin API")

		// Answer immediately; the cycle runs detached from the request,
		// concurrently-safe with the autonomous scheduler.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), constants.CycleTimeout)
			defer cancel()

			var err error
			if kind == domain.CycleDaily {
				err = s.trigger.RunDaily(ctx)
			} else {
				err = s.trigger.RunMonthly(ctx)
			}
			if err != nil {
				s.logger.Error().Err(err).Str("kind", string(kind)).Msg("manual cycle failed")
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "kind": string(kind)})
	}
}

func (s *AdminServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Status())
}

func (s *AdminServer) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.riot.GetRateLimitInfo())
}

func (s *AdminServer) handleJournal(w http.ResponseWriter, r *http.Request) {
	runs, err := s.journal.Recent(r.Context(), constants.JournalListLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list journal")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
