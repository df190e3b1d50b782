// Package cmd provides shared construction helpers for the agentforge
// binaries: persistence and event bus instances built from CLI flags.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/agentforge/agentforge/pkg/persistence"
	"github.com/agentforge/agentforge/pkg/persistence/file"
	"github.com/agentforge/agentforge/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"file", "postgresql", "postgres"}

// NewPersistence builds a persistence layer from the database URL scheme.
// Anything that is not a recognized scheme falls back to file storage, which
// keeps local development a one-flag affair.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgresql", "postgres":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic("failed to create PostgreSQL persistence: " + err.Error())
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
