package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/ports"
)

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// ArticleRepository is a map-backed article repository for development mode.
type ArticleRepository struct {
	mu       sync.RWMutex
	articles map[string]model.Article
}

// NewArticleRepository creates an empty in-memory article repository.
func NewArticleRepository() *ArticleRepository {
	return &ArticleRepository{articles: make(map[string]model.Article)}
}

// Create stores a new article with a generated ID.
func (r *ArticleRepository) Create(_ context.Context, req *model.CreateArticleRequest) (*model.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	article := model.Article{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Body:      req.Body,
		AuthorID:  req.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles[article.ID] = article
	return &article, nil
}

// GetByID returns the article for an ID.
func (r *ArticleRepository) GetByID(_ context.Context, id string) (*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	article, ok := r.articles[id]
	if !ok {
		return nil, ports.ErrArticleNotFound
	}
	return &article, nil
}

// List returns a page of articles ordered by creation time, newest first.
func (r *ArticleRepository) List(_ context.Context, limit, offset int) ([]*model.Article, error) {
	r.mu.RLock()
	all := make([]model.Article, 0, len(r.articles))
	for _, a := range r.articles {
		all = append(all, a)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*model.Article{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	page := make([]*model.Article, 0, end-offset)
	for i := offset; i < end; i++ {
		a := all[i]
		page = append(page, &a)
	}
	return page, nil
}

// Update applies partial updates to an article.
func (r *ArticleRepository) Update(_ context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	article, ok := r.articles[id]
	if !ok {
		return nil, ports.ErrArticleNotFound
	}
	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Body != nil {
		article.Body = *req.Body
	}
	article.UpdatedAt = time.Now().UTC()
	r.articles[id] = article
	return &article, nil
}

// Delete removes an article, reporting whether it existed.
func (r *ArticleRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.articles[id]; !ok {
		return false, nil
	}
	delete(r.articles, id)
	return true, nil
}
