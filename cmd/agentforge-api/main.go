package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/agentforge/agentforge/pkg/cmd"
	"github.com/agentforge/agentforge/pkg/log"
	"github.com/agentforge/agentforge/pkg/otelhelper"
	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/agentforge/agentforge/pkg/persistence/redis"
	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

const defaultDraftRetention = 30 * 24 * time.Hour

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "agentforge-api",
		Usage:                 "Create, configure and publish agents",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Optional Redis URL for the hot execution feed",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringSliceFlag{
				Name:    "admin-ids",
				Usage:   "Actor IDs treated as platform administrators",
				Sources: cli.EnvVars("ADMIN_IDS"),
			},
			&cli.DurationFlag{
				Name:    "draft-retention",
				Usage:   "Age after which never-published drafts are purged",
				Value:   defaultDraftRetention,
				Sources: cli.EnvVars("DRAFT_RETENTION"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for event handling",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Agentforge API")

			if command.Bool("tracing") {
				tracerProvider, err := otelhelper.InitTracer(ctx, "agentforge-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := tracerProvider.Shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				err := store.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			// The hot execution feed lives in Redis when a URL is given;
			// otherwise executions share the primary store.
			executions := store.ExecutionRepository()

			if redisURL := command.String("redis-url"); redisURL != "" {
				feed, err := redis.NewExecutionRepository(ctx, redisURL)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to connect to Redis", "error", err)

					return err
				}

				defer func() {
					if err := feed.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close Redis client", "error", err)
					}
				}()

				executions = feed
			}

			api := NewAPI(
				logger,
				store,
				executions,
				eventBus,
				command.StringSlice("admin-ids"),
			)

			purger := startDraftPurger(ctx, logger, store, command.Duration("draft-retention"))
			defer purger.Stop()

			err := api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

// startDraftPurger schedules the hourly cleanup of abandoned drafts.
func startDraftPurger(ctx context.Context, logger *slog.Logger, store persistence.Persistence, retention time.Duration) *cron.Cron {
	scheduler := cron.New()

	_, err := scheduler.AddFunc("@hourly", func() {
		cutoff := time.Now().UTC().Add(-retention)

		purged, err := store.AgentRepository().PurgeAbandonedDrafts(ctx, cutoff)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to purge abandoned drafts", "error", err)

			return
		}

		if purged > 0 {
			logger.InfoContext(ctx, "Purged abandoned drafts", "count", purged)
		}
	})
	if err != nil {
		panic(err)
	}

	scheduler.Start()

	return scheduler
}
