package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/ports"
)

var _ ports.ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo provides database operations for articles.
type ArticleRepo struct {
	pool *pgxpool.Pool
}

// NewArticleRepo creates a new ArticleRepo.
func NewArticleRepo(pool *pgxpool.Pool) *ArticleRepo {
	return &ArticleRepo{pool: pool}
}

const articleColumns = `id, title, body, author_id, created_at, updated_at`

// Create inserts a new article.
func (r *ArticleRepo) Create(ctx context.Context, req *model.CreateArticleRequest) (*model.Article, error) {
	if req == nil {
		return nil, errors.New("create article request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		INSERT INTO articles (id, title, body, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+articleColumns,
		uuid.New().String(), strings.TrimSpace(req.Title), req.Body, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}

	out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		return nil, fmt.Errorf("collect article: %w", err)
	}
	return &out, nil
}

// GetByID retrieves an article by ID.
func (r *ArticleRepo) GetByID(ctx context.Context, id string) (*model.Article, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}

	out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrArticleNotFound
		}
		return nil, fmt.Errorf("collect article: %w", err)
	}
	return &out, nil
}

// List retrieves articles with pagination, newest first.
func (r *ArticleRepo) List(ctx context.Context, limit, offset int) ([]*model.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		return nil, fmt.Errorf("collect articles: %w", err)
	}

	out := make([]*model.Article, len(collected))
	for i := range collected {
		out[i] = &collected[i]
	}
	return out, nil
}

// Update applies partial updates to an article.
func (r *ArticleRepo) Update(ctx context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		UPDATE articles
		SET title = COALESCE($2, title),
		    body = COALESCE($3, body),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+articleColumns,
		id, trimmedTitle(req.Title), req.Body)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}

	out, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrArticleNotFound
		}
		return nil, fmt.Errorf("collect article: %w", err)
	}
	return &out, nil
}

// Delete removes an article, reporting whether a row was deleted.
func (r *ArticleRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete article: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func trimmedTitle(title *string) *string {
	if title == nil {
		return nil
	}
	t := strings.TrimSpace(*title)
	return &t
}
