package httpx

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"

	wicket "github.com/loftsec/wicket"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/ports"
	"github.com/loftsec/wicket/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Articles     ports.ArticleRepository
	Credentials  CredentialService
	Sessions     SessionService
	Guard        GuardService
	Gates        *service.GateRegistry
	CookieDomain string
	IsDev        bool         // Development mode flag for template hot reloading
	Logger       *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
// It validates every capability referenced by a route against the gate
// registry before binding; an unregistered capability is a configuration
// fault and aborts startup.
func NewRouter(services RouterServices) (http.Handler, error) {
	if err := services.Gates.Require(
		domainauth.CapabilityArticlesView,
		domainauth.CapabilityArticlesEdit,
	); err != nil {
		return nil, fmt.Errorf("route binding: %w", err)
	}

	renderer, err := newRouterRenderer(services)
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	mux := http.NewServeMux()

	uiHandlers := &UIHandlers{
		T:          renderer,
		ArticleSvc: services.Articles,
		Guard:      services.Guard,
		Logger:     services.Logger,
	}
	authHandlers := &AuthHandlers{
		Credentials:  services.Credentials,
		Sessions:     services.Sessions,
		Renderer:     renderer,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	articleHandlers := &ArticleHandlers{Repo: services.Articles}

	cfg := routeConfig{
		Guard:        services.Guard,
		Sessions:     services.Sessions,
		CookieDomain: services.CookieDomain,
		Forbidden:    http.HandlerFunc(uiHandlers.Forbidden),
	}

	registerAuthRoutes(mux, authHandlers, cfg)
	registerArticleAPIRoutes(mux, articleHandlers, cfg)
	registerArticleUIRoutes(mux, uiHandlers, cfg)
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	// Wrap with NotFound handler and browser detection middleware
	handler := &notFoundHandler{
		mux:        mux,
		uiHandlers: uiHandlers,
	}

	return BrowserDetection()(handler), nil
}

// newRouterRenderer picks the template filesystem for the current mode.
// Dev mode loads from disk for hot reloading; production uses the embedded FS.
func newRouterRenderer(services RouterServices) (*TemplateRenderer, error) {
	var templateFS fs.FS
	if services.IsDev {
		templateFS = os.DirFS(TemplatePathFromRoot)
	} else {
		sub, err := fs.Sub(wicket.TemplateFS, "templates")
		if err != nil {
			return nil, err
		}
		templateFS = sub
	}

	return NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		Logger:     services.Logger,
	})
}

// routeConfig holds cross-cutting dependencies for route registration.
type routeConfig struct {
	Guard        GuardService
	Sessions     SessionService
	CookieDomain string
	Forbidden    http.Handler
}

// viewWrap admits any signed-in caller holding the articles view capability.
func (cfg routeConfig) viewWrap() func(http.Handler) http.Handler {
	return RequireCapability(CapabilityParams{
		Guard:      cfg.Guard,
		Capability: domainauth.CapabilityArticlesView,
		Forbidden:  cfg.Forbidden,
	})
}

// editWrap admits only callers holding the articles edit capability and
// validates the session-bound anti-forgery token on writes.
func (cfg routeConfig) editWrap() func(http.Handler) http.Handler {
	capability := RequireCapability(CapabilityParams{
		Guard:      cfg.Guard,
		Capability: domainauth.CapabilityArticlesEdit,
		Forbidden:  cfg.Forbidden,
	})
	antiForgery := AntiForgery()
	return func(h http.Handler) http.Handler {
		return capability(antiForgery(h))
	}
}

// sessionWrap requires a valid session without any capability, for endpoints
// like sign-out that every signed-in caller may reach.
func (cfg routeConfig) sessionWrap() func(http.Handler) http.Handler {
	return RequireCapability(CapabilityParams{
		Guard:     cfg.Guard,
		Forbidden: cfg.Forbidden,
	})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg routeConfig) {
	// The sign-in form is anonymous; it gets double-submit CSRF protection
	// since no session-bound token exists yet.
	csrf := CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
	mux.Handle("GET /login", csrf(http.HandlerFunc(h.LoginPage)))
	mux.Handle("POST /login", csrf(http.HandlerFunc(h.Login)))

	// Sign-out is state-changing: valid session plus anti-forgery token.
	wrapSession := cfg.sessionWrap()
	mux.Handle("POST /logout", wrapSession(AntiForgery()(http.HandlerFunc(h.Logout))))

	mux.HandleFunc("GET /api/auth/status", h.Status)
}

func registerArticleAPIRoutes(mux *http.ServeMux, h *ArticleHandlers, cfg routeConfig) {
	wrapView := cfg.viewWrap()
	wrapEdit := cfg.editWrap()

	mux.Handle("GET /api/articles", wrapView(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/articles/{id}", wrapView(http.HandlerFunc(h.GetByID)))
	mux.Handle("POST /api/articles", wrapEdit(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/articles/{id}", wrapEdit(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/articles/{id}", wrapEdit(http.HandlerFunc(h.Delete)))
}

func registerArticleUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg routeConfig) {
	wrapView := cfg.viewWrap()
	wrapEdit := cfg.editWrap()

	mux.Handle("GET /", wrapView(http.HandlerFunc(h.Index)))
	mux.Handle("GET /articles", wrapView(http.HandlerFunc(h.Articles)))
	mux.Handle("GET /articles/{id}", wrapView(http.HandlerFunc(h.ArticleView)))

	mux.Handle("GET /articles/new", wrapEdit(http.HandlerFunc(h.ArticleNew)))
	mux.Handle("GET /articles/{id}/edit", wrapEdit(http.HandlerFunc(h.ArticleEdit)))
	mux.Handle("POST /articles", wrapEdit(http.HandlerFunc(h.ArticleCreate)))
	mux.Handle("POST /articles/{id}", wrapEdit(http.HandlerFunc(h.ArticleUpdate)))
	mux.Handle("POST /articles/{id}/delete", wrapEdit(http.HandlerFunc(h.ArticleDelete)))
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	// Serve the request through the mux, capturing status, headers, and body
	h.mux.ServeHTTP(cw, r)

	// If the mux didn't handle the request (404), use our custom handler
	if cw.status == http.StatusNotFound {
		if h.uiHandlers != nil {
			h.uiHandlers.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
		return
	}

	// Not a 404: write the captured response
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		log.Printf("failed to write captured response: %v", err)
	}
}
