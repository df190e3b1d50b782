package main

import (
	"context"
	"os"
	"time"

	"github.com/agentforge/agentforge/pkg/backend"
	"github.com/agentforge/agentforge/pkg/cmd"
	"github.com/agentforge/agentforge/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("watch")

	command := &cli.Command{
		Name:                  "agentforge-watch",
		Usage:                 "Tail the milestone feed of a running execution",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "api-url",
				Usage:    "Base URL of the Agentforge API",
				Required: true,
				Sources:  cli.EnvVars("AGENTFORGE_API_URL"),
			},
			&cli.StringFlag{
				Name:     "actor-id",
				Usage:    "Actor identity used for API calls",
				Required: true,
				Sources:  cli.EnvVars("AGENTFORGE_ACTOR_ID"),
			},
			&cli.StringFlag{
				Name:     "execution-id",
				Aliases:  []string{"e"},
				Usage:    "Execution to tail",
				Required: true,
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Gap between status polls",
				Value:   2 * time.Second,
				Sources: cli.EnvVars("POLL_INTERVAL"),
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

			client, err := backend.NewClient(
				command.String("api-url"),
				command.String("actor-id"),
				nil,
			)
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus("gochannel", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			watcher := NewWatcher(logger, client, eventBus, command.Duration("poll-interval"))

			return watcher.Watch(ctx, command.String("execution-id"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
