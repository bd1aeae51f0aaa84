package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flarelab/storylab/pkg/persistence"
	"github.com/flarelab/storylab/pkg/persistence/file"
	"github.com/flarelab/storylab/pkg/persistence/postgresql"
)

// NewPersistence creates a storage backend from the database URL scheme.
// postgres:// and postgresql:// select PostgreSQL; anything else is treated
// as a file store root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
