package data

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loftsec/wicket/internal/migrate"
)

// RunMigrations executes database migrations to set up the required schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return migrate.Run(ctx, pool)
}
