// Package devseed populates the in-memory stores with demo users and
// articles so the application is usable immediately in development mode.
// It is never invoked against persistent stores.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/loftsec/wicket/internal/adapters/memory"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/ports"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	Users    *memory.UserStore
	Articles ports.ArticleRepository
	Hasher   ports.PasswordHasher
	Logger   *slog.Logger
}

type seedUser struct {
	identifier string
	name       string
	secret     string
	role       domainauth.Role
}

var seedUsers = []seedUser{
	{identifier: "editor@example.com", name: "Edith Editor", secret: "editor-dev-password", role: domainauth.RolePrivileged},
	{identifier: "reader@example.com", name: "Randall Reader", secret: "reader-dev-password", role: domainauth.RoleStandard},
}

// Run seeds the development users and a handful of articles. Article seeding
// failures are logged and skipped; a user seeding failure aborts, since an
// unusable login defeats the point of the seed.
func Run(ctx context.Context, svcs Services) error {
	if svcs.Users == nil || svcs.Articles == nil || svcs.Hasher == nil {
		return errors.New("devseed requires users, articles, and hasher")
	}
	logger := svcs.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Argon2 hashing dominates seed time, so hash all secrets concurrently.
	hashes := make([]string, len(seedUsers))
	var g errgroup.Group
	for i, su := range seedUsers {
		g.Go(func() error {
			hash, err := svcs.Hasher.Hash(su.secret)
			if err != nil {
				return fmt.Errorf("hash seed secret for %s: %w", su.identifier, err)
			}
			hashes[i] = hash
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var editorID string
	for i, su := range seedUsers {
		user := domainauth.User{
			ID:          uuid.New().String(),
			Identifier:  su.identifier,
			DisplayName: su.name,
			SecretHash:  hashes[i],
			Role:        su.role,
			CreatedAt:   time.Now().UTC(),
		}
		svcs.Users.Put(user)
		if su.role == domainauth.RolePrivileged {
			editorID = user.ID
		}
		logger.InfoContext(ctx, "seeded dev user",
			"identifier", su.identifier,
			"role", string(su.role),
		)
	}

	for _, a := range seedArticles(editorID) {
		if _, err := svcs.Articles.Create(ctx, a); err != nil {
			logger.WarnContext(ctx, "seed article failed", "title", a.Title, "error", err)
		}
	}

	logger.InfoContext(ctx, "development seed complete",
		"users", len(seedUsers),
		"logins", "editor@example.com / reader@example.com (see devseed source for passwords)",
	)
	return nil
}

func seedArticles(authorID string) []*model.CreateArticleRequest {
	return []*model.CreateArticleRequest{
		{
			Title:    "Welcome to Wicket",
			Body:     "This instance is running in development mode with seeded data.\n\nSign in as editor@example.com to create and edit articles, or reader@example.com for read-only access.",
			AuthorID: authorID,
		},
		{
			Title:    "Editing articles",
			Body:     "Only privileged accounts can create, edit, or delete articles. Standard accounts can browse and read everything.",
			AuthorID: authorID,
		},
	}
}
