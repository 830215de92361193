package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_id"

// GuardService is the access-check surface middleware depends on.
type GuardService interface {
	Admit(ctx context.Context, token, capability string) (domainauth.Decision, error)
	Can(ctx context.Context, token, capability string) bool
}

// SessionService is the session lifecycle surface handlers and middleware depend on.
type SessionService interface {
	Create(ctx context.Context, identity domainauth.Identity) (domainauth.Session, error)
	Resolve(ctx context.Context, token string) (*domainauth.Session, error)
	Destroy(ctx context.Context, token string) error
	RotateAntiForgery(ctx context.Context, token string) (string, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionTokenFromRequest extracts the raw session token from the request cookie.
// Returns "" when the cookie is absent; the guard treats "" as anonymous.
func SessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// CapabilityParams configures RequireCapability.
type CapabilityParams struct {
	Guard      GuardService
	Capability string
	// Forbidden renders the access-denied response for browser requests.
	// When nil, a plain 403 is written.
	Forbidden http.Handler
}

// RequireCapability returns a middleware that admits requests through the guard.
// Anonymous requests get a 401 JSON error (API) or a redirect to the sign-in
// page (browser). Authenticated requests lacking the capability get a 403.
// Admitted requests carry the session in the request context.
func RequireCapability(p CapabilityParams) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFromRequest(r)
			decision, err := p.Guard.Admit(r.Context(), token, p.Capability)
			if err != nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "access_check_failed",
					Err:     errors.New("access check failed"),
				})
				return
			}

			switch decision.Verdict {
			case domainauth.VerdictAllow:
				ctx := SetSessionInContext(r.Context(), decision.Session)
				// Forms on any authenticated page need the session-bound
				// anti-forgery token
				if decision.Session != nil {
					ctx = setCSRFTokenInContext(ctx, decision.Session.CSRFToken)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.VerdictDenyUnauthenticated:
				denyUnauthenticated(w, r)
			case domainauth.VerdictDenyForbidden:
				denyForbidden(w, r, decision.Session, p.Forbidden)
			default:
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "access_check_failed",
					Err:     errors.New("unrecognized access decision"),
				})
			}
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		redirectToLogin(w, r)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

func denyForbidden(w http.ResponseWriter, r *http.Request, session *domainauth.Session, forbidden http.Handler) {
	if IsBrowserRequest(r) {
		if forbidden != nil {
			// The denied page still renders with the caller's identity.
			forbidden.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), session)))
			return
		}
		http.Error(w, "Access Denied: You don't have permission to access this resource", http.StatusForbidden)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "insufficient_permissions",
		Err:     errors.New("insufficient permissions"),
	})
}

// OptionalSession returns a middleware that resolves the session when present.
// Anonymous requests continue without session information.
func OptionalSession(sessions SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFromRequest(r)
			if token != "" {
				if session, err := sessions.Resolve(r.Context(), token); err == nil && session != nil {
					r = r.WithContext(SetSessionInContext(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// It sets a context value that can be used by downstream handlers to determine
// whether to return HTML or JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isBrowser := isBrowserRequest(r)
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func isBrowserRequest(r *http.Request) bool {
	// API routes are explicitly not browser requests
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}

	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}

	return strings.Contains(accept, "text/html")
}

// redirectToLogin redirects browser requests to the sign-in page with the
// current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectPath := safeRedirectPath(r.URL.RequestURI())
	loginURL := "/login?redirect_uri=" + url.QueryEscape(redirectPath)
	http.Redirect(w, r, loginURL, http.StatusSeeOther)
}
