package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loftsec/wicket/config"
	"github.com/loftsec/wicket/internal/adapters/memory"
	"github.com/loftsec/wicket/internal/data"
	"github.com/loftsec/wicket/internal/ports"
)

// BuildArticleRepo selects the article repository for the configured store
// mode: Postgres when persistent, an in-memory map otherwise.
//
//nolint:ireturn // callers program against the port, not a concrete repo.
func BuildArticleRepo(cfg *config.AppConfig, pool *pgxpool.Pool) ports.ArticleRepository {
	if cfg.Auth.Store == config.StoreModeMemory {
		return memory.NewArticleRepository()
	}
	return data.NewArticleRepo(pool)
}
