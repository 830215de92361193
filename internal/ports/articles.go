package ports

import (
	"context"
	"errors"

	"github.com/loftsec/wicket/internal/domain/model"
)

// ErrArticleNotFound is returned when no article exists for an ID.
var ErrArticleNotFound = errors.New("article not found")

// ArticleRepository defines the interface for article data operations.
type ArticleRepository interface {
	Create(ctx context.Context, req *model.CreateArticleRequest) (*model.Article, error)
	GetByID(ctx context.Context, id string) (*model.Article, error)
	List(ctx context.Context, limit, offset int) ([]*model.Article, error)
	Update(ctx context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error)
	Delete(ctx context.Context, id string) (bool, error)
}
