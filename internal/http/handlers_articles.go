// Package httpx provides HTTP handlers and utilities for the wicket API and UI.
package httpx

import (
	"errors"
	"net/http"

	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/ports"
)

// ArticleHandlers provides HTTP handlers for article-related operations.
type ArticleHandlers struct {
	Repo ports.ArticleRepository
}

const (
	maxArticleListLimit = 100 // Maximum number of articles that can be requested in one call
)

// Create handles HTTP requests to create a new article.
func (h *ArticleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateArticleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	// The author is always the signed-in principal, never client-supplied
	if session := GetSessionFromContext(r.Context()); session != nil {
		req.AuthorID = session.UserID
	}

	article, err := h.Repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "create_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusCreated, article)
}

// List handles HTTP requests to list articles with pagination.
func (h *ArticleHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, 50, maxArticleListLimit)

	articles, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"articles": articles,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetByID handles HTTP requests to get an article by ID.
func (h *ArticleHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("article id is required")},
		)
		return
	}

	article, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrArticleNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "article_not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "get_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, article)
}

// Update handles HTTP requests to update an article.
func (h *ArticleHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("article id is required")},
		)
		return
	}

	var req model.UpdateArticleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	article, err := h.Repo.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrArticleNotFound):
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "article_not_found", Err: err})
		case isValidationError(err):
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
		default:
			WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "update_failed", Err: err})
		}
		return
	}

	WriteJSON(w, http.StatusOK, article)
}

// Delete handles HTTP requests to delete an article.
func (h *ArticleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("article id is required")},
		)
		return
	}

	deleted, err := h.Repo.Delete(r.Context(), id)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "delete_failed", Err: err})
		return
	}
	if !deleted {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "article_not_found",
			Err:     errors.New("article not found"),
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
