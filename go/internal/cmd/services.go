package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/clients/wlsystem"
	"github.com/liftingsocial/wlbridge/go/internal/feed"
	"github.com/liftingsocial/wlbridge/go/internal/gateway"
	"github.com/liftingsocial/wlbridge/go/internal/httpapi"
	"github.com/liftingsocial/wlbridge/go/internal/live"
	"github.com/liftingsocial/wlbridge/go/internal/projection"
	"github.com/liftingsocial/wlbridge/go/internal/reconcile"
	"github.com/liftingsocial/wlbridge/go/internal/relay"
	"github.com/liftingsocial/wlbridge/go/internal/scheduler"
	"github.com/liftingsocial/wlbridge/go/internal/syncer"
)

type Services struct {
	Client       *wlsystem.Client
	States       *live.StateManager
	Fetcher      *reconcile.Fetcher
	Feed         *feed.Client
	Orchestrator *syncer.Orchestrator
	Connections  *gateway.ConnectionManager
	Relay        *relay.Publisher
	Scheduler    *scheduler.Scheduler
	Handler      *httpapi.Handler
}

func setupServices(config *Config, pool *pgxpool.Pool) (*Services, error) {
	// Wire up the bridge pipeline:
	// feed frames -> state manager -> projection -> gateway fanout / relay
	client := wlsystem.NewClient(config.WLSystem.BaseURL, config.WLSystem.Token)
	states := live.NewStateManager()
	fetcher := reconcile.NewFetcher(client, states, 15*time.Second)

	var relayPublisher *relay.Publisher
	if config.Relay.Enabled {
		relayCfg := relay.DefaultJetStreamConfig()
		if config.Relay.URL != "" {
			relayCfg.URL = config.Relay.URL
		}
		if config.Relay.StreamName != "" {
			relayCfg.StreamName = config.Relay.StreamName
		}
		if config.Relay.SubjectPrefix != "" {
			relayCfg.SubjectPrefix = config.Relay.SubjectPrefix
		}

		var err error
		relayPublisher, err = relay.NewPublisher(relayCfg)
		if err != nil {
			return nil, err
		}
	}

	feedClient := feed.NewClient(
		feed.DefaultConfig(config.Feed.URL),
		feed.Callbacks{
			Event: func(event *live.LiveEvent) {
				effect := states.ApplyEvent(event)
				if effect == live.EffectReconcile {
					go func() {
						if err := fetcher.Reconcile(context.Background(), event.CompetitionID); err != nil {
							log.Warn().
								Err(err).
								Str("competition_id", event.CompetitionID).
								Msg("signal-triggered reconciliation failed")
						}
					}()
				}
				if relayPublisher != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := relayPublisher.Publish(ctx, event); err != nil {
						log.Warn().Err(err).Msg("failed to relay live event")
					}
				}
			},
			Status: func(status feed.Status) {
				log.Info().Str("status", string(status)).Msg("live feed status changed")
			},
			Reconnect: func(competitionID string) {
				go func() {
					if err := fetcher.Reconcile(context.Background(), competitionID); err != nil {
						log.Warn().
							Err(err).
							Str("competition_id", competitionID).
							Msg("post-reconnect reconciliation failed")
					}
				}()
			},
		},
		clockwork.NewRealClock(),
	)

	repo := syncer.NewPostgresSyncLogRepository(pool)
	orchestrator := syncer.NewOrchestrator(client, repo, clockwork.NewRealClock())

	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	wsHandler := gateway.NewWebSocketHandler(connections)

	// Every state change fans projected rows out to downstream screens.
	states.OnChange(func(competitionID string, state live.CompetitionState, event *live.LiveEvent) {
		if event != nil {
			connections.Broadcast(competitionID, "live-update", event)
		}
		connections.Broadcast(competitionID, "scoreboard", projection.Project(state.Results))
	})

	sched := scheduler.NewScheduler(
		scheduler.Config{Enabled: config.Scheduler.Enabled, Interval: config.Scheduler.Interval},
		fetcher,
		feedClient,
	)

	handler := httpapi.NewHandler(states, fetcher, orchestrator, client, feedClient, wsHandler, connections)

	return &Services{
		Client:       client,
		States:       states,
		Fetcher:      fetcher,
		Feed:         feedClient,
		Orchestrator: orchestrator,
		Connections:  connections,
		Relay:        relayPublisher,
		Scheduler:    sched,
		Handler:      handler,
	}, nil
}
