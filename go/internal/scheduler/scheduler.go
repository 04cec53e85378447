package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/internal/reconcile"
)

// RoomSource lists the competitions currently subscribed on the feed.
type RoomSource interface {
	Rooms() []string
}

// Config holds the periodic reconciliation settings.
type Config struct {
	Enabled  bool
	Interval string // cron spec, e.g. "@every 2m"
}

// Scheduler periodically re-reconciles every subscribed competition. The
// delta stream carries no sequence numbers, so a sweep bounds how long any
// silently lost frame can skew the scoreboard.
type Scheduler struct {
	cfg     Config
	fetcher *reconcile.Fetcher
	rooms   RoomSource
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewScheduler(cfg Config, fetcher *reconcile.Fetcher, rooms RoomSource) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		fetcher: fetcher,
		rooms:   rooms,
		cron:    cron.New(),
	}
}

func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		log.Info().Msg("reconciliation scheduler is disabled")
		return
	}

	log.Info().Str("interval", s.cfg.Interval).Msg("starting reconciliation scheduler")

	id, err := s.cron.AddFunc(s.cfg.Interval, s.sweep)
	if err != nil {
		log.Error().Err(err).Msg("failed to schedule reconciliation sweep")
		return
	}

	s.entryID = id
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Info().Msg("stopped reconciliation scheduler")
}

func (s *Scheduler) sweep() {
	for _, id := range s.rooms.Rooms() {
		if s.fetcher.InFlight(id) {
			log.Debug().Str("competition_id", id).Msg("reconciliation already running, skipping sweep")
			continue
		}
		if err := s.fetcher.Reconcile(context.Background(), id); err != nil {
			log.Warn().Err(err).Str("competition_id", id).Msg("scheduled reconciliation failed")
		}
	}
}
