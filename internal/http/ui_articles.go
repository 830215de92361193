package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/domain/model"
	"github.com/loftsec/wicket/internal/ports"
)

const errMsgFixBelow = "Please fix the errors below."

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T          *TemplateRenderer
	ArticleSvc ports.ArticleRepository
	Guard      GuardService
	Logger     *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// pageData builds the common template data, including whether the viewer may
// edit articles. The guard answers that read-only query so templates never
// reimplement role logic.
func (h *UIHandlers) pageData(r *http.Request, meta PageMeta) map[string]any {
	data := basePageData(r, meta)
	token := SessionTokenFromRequest(r)
	data["CanEditArticles"] = h.Guard.Can(r.Context(), token, domainauth.CapabilityArticlesEdit)
	return data
}

// Index redirects the root path to the articles list.
// GET /.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

// Articles renders the paginated articles list.
// GET /articles.
func (h *UIHandlers) Articles(w http.ResponseWriter, r *http.Request) {
	page, pageSize := getPageParams(r.URL.Query())
	opts := pageOpts{Page: page, PageSize: pageSize}
	limit, offset := opts.LimitAndOffset()

	articles, err := h.ArticleSvc.List(r.Context(), limit, offset)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "listing articles failed", "error", err)
		h.renderServerError(w, r)
		return
	}

	hasNext := len(articles) > pageSize
	if hasNext {
		articles = articles[:pageSize]
	}

	data := h.pageData(r, PageMeta{Title: "Articles", CurrentPage: PageArticles})
	data["Articles"] = articles
	data["Page"] = page
	data["HasPrev"] = page > 1
	data["HasNext"] = hasNext
	if page > 1 {
		data["PrevURL"] = buildPageURL("/articles", r.URL.Query(), pageOpts{Page: page - 1, PageSize: pageSize})
	}
	if hasNext {
		data["NextURL"] = buildPageURL("/articles", r.URL.Query(), pageOpts{Page: page + 1, PageSize: pageSize})
	}

	h.render(w, r, data)
}

// ArticleView renders a single article.
// GET /articles/{id}.
func (h *UIHandlers) ArticleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}

	article, err := h.ArticleSvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrArticleNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "loading article failed", "error", err, "id", id)
		h.renderServerError(w, r)
		return
	}

	data := h.pageData(r, PageMeta{Title: article.Title, CurrentPage: PageArticleView})
	data["Article"] = article
	h.render(w, r, data)
}

// ArticleNew renders the create-article form.
// GET /articles/new.
func (h *UIHandlers) ArticleNew(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, PageMeta{Title: "New Article", CurrentPage: PageArticleForm})
	data["FormMode"] = FormModeCreate
	data["FormAction"] = "/articles"
	h.render(w, r, data)
}

// ArticleEdit renders the edit-article form.
// GET /articles/{id}/edit.
func (h *UIHandlers) ArticleEdit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}

	article, err := h.ArticleSvc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrArticleNotFound) {
			h.NotFound(w, r)
			return
		}
		h.logger().ErrorContext(r.Context(), "loading article failed", "error", err, "id", id)
		h.renderServerError(w, r)
		return
	}

	data := h.pageData(r, PageMeta{Title: "Edit Article", CurrentPage: PageArticleForm})
	data["FormMode"] = FormModeEdit
	data["FormAction"] = "/articles/" + article.ID
	data["Article"] = article
	h.render(w, r, data)
}

// ArticleCreate handles the create-article form submission.
// POST /articles.
func (h *UIHandlers) ArticleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req := &model.CreateArticleRequest{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}
	if session := GetSessionFromContext(r.Context()); session != nil {
		req.AuthorID = session.UserID
	}

	article, err := h.ArticleSvc.Create(r.Context(), req)
	if err != nil {
		if isValidationError(err) {
			h.rerenderArticleForm(w, r, articleFormState{
				Mode:   FormModeCreate,
				Action: "/articles",
				Title:  req.Title,
				Body:   req.Body,
				ErrMsg: err.Error(),
			})
			return
		}
		h.logger().ErrorContext(r.Context(), "creating article failed", "error", err)
		h.renderServerError(w, r)
		return
	}

	http.Redirect(w, r, "/articles/"+article.ID, http.StatusSeeOther)
}

// ArticleUpdate handles the edit-article form submission.
// POST /articles/{id}.
func (h *UIHandlers) ArticleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	title := r.PostFormValue("title")
	body := r.PostFormValue("body")
	req := model.UpdateArticleRequest{Title: &title, Body: &body}

	article, err := h.ArticleSvc.Update(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrArticleNotFound):
			h.NotFound(w, r)
		case isValidationError(err):
			h.rerenderArticleForm(w, r, articleFormState{
				Mode:   FormModeEdit,
				Action: "/articles/" + id,
				Title:  title,
				Body:   body,
				ErrMsg: err.Error(),
			})
		default:
			h.logger().ErrorContext(r.Context(), "updating article failed", "error", err, "id", id)
			h.renderServerError(w, r)
		}
		return
	}

	http.Redirect(w, r, "/articles/"+article.ID, http.StatusSeeOther)
}

// ArticleDelete handles article deletion from the UI.
// POST /articles/{id}/delete.
func (h *UIHandlers) ArticleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}

	deleted, err := h.ArticleSvc.Delete(r.Context(), id)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "deleting article failed", "error", err, "id", id)
		h.renderServerError(w, r)
		return
	}
	if !deleted {
		h.NotFound(w, r)
		return
	}

	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

// Forbidden renders the access-denied page for browser requests.
func (h *UIHandlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "Access Denied", CurrentPage: PageArticles})
	data["StatusCode"] = strconv.Itoa(http.StatusForbidden)
	data["Message"] = "You don't have permission to access this resource."
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := h.T.RenderError(w, r, data); err != nil {
		// Headers are already out; nothing more to write
		h.logger().ErrorContext(r.Context(), "rendering forbidden page failed", "error", err)
	}
}

// NotFound renders the not-found page for browser requests.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "not_found",
			Err:     errors.New("resource not found"),
		})
		return
	}

	data := basePageData(r, PageMeta{Title: "Not Found", CurrentPage: PageArticles})
	data["StatusCode"] = strconv.Itoa(http.StatusNotFound)
	data["Message"] = "The page you're looking for doesn't exist."
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "rendering not-found page failed", "error", err)
	}
}

// articleFormState carries resubmitted form values and the validation message
// back into the form template.
type articleFormState struct {
	Mode   FormMode
	Action string
	Title  string
	Body   string
	ErrMsg string
}

func (h *UIHandlers) rerenderArticleForm(w http.ResponseWriter, r *http.Request, state articleFormState) {
	data := h.pageData(r, PageMeta{Title: "Article", CurrentPage: PageArticleForm})
	data["FormMode"] = state.Mode
	data["FormAction"] = state.Action
	data["FormTitle"] = state.Title
	data["FormBody"] = state.Body
	data["Error"] = true
	data["ErrorMessage"] = errMsgFixBelow
	if msg := strings.TrimSpace(state.ErrMsg); msg != "" {
		data["ErrorMessage"] = msg
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, r, data)
}

func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if err := h.T.RenderFull(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "page render failed", "error", err)
	}
}

func (h *UIHandlers) renderServerError(w http.ResponseWriter, r *http.Request) {
	data := basePageData(r, PageMeta{Title: "Error", CurrentPage: PageArticles})
	data["StatusCode"] = strconv.Itoa(http.StatusInternalServerError)
	data["Message"] = "Something went wrong. Please try again."
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := h.T.RenderError(w, r, data); err != nil {
		h.logger().ErrorContext(r.Context(), "rendering error page failed", "error", err)
	}
}
