//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxArticleTitleLen = 255
	maxArticleBodyLen  = 64 * 1024
)

// Article represents a published article in the application the auth layer
// protects. AuthorID references the user that created it.
type Article struct {
	ID        string    `json:"id"         db:"id"`
	Title     string    `json:"title"      db:"title"`
	Body      string    `json:"body"       db:"body"`
	AuthorID  string    `json:"author_id"  db:"author_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateArticleRequest represents parameters to create an Article.
type CreateArticleRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	AuthorID string `json:"-"`
}

// UpdateArticleRequest represents parameters to update an Article.
type UpdateArticleRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// Validate validates CreateArticleRequest.
func (r *CreateArticleRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxArticleTitleLen {
		return errors.New("title exceeds maximum length")
	}
	if utf8.RuneCountInString(r.Body) > maxArticleBodyLen {
		return errors.New("body exceeds maximum length")
	}
	if strings.TrimSpace(r.AuthorID) == "" {
		return errors.New("author is required")
	}
	return nil
}

// Validate validates UpdateArticleRequest.
func (r *UpdateArticleRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return errors.New("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxArticleTitleLen {
			return errors.New("title exceeds maximum length")
		}
	}
	if r.Body != nil && utf8.RuneCountInString(*r.Body) > maxArticleBodyLen {
		return errors.New("body exceeds maximum length")
	}
	return nil
}
