package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/loftsec/wicket/internal/domain/auth"
)

// CredentialService is the credential verification surface the login handler depends on.
type CredentialService interface {
	Verify(ctx context.Context, identifier, secret string) (domainauth.Identity, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Credentials  CredentialService
	Sessions     SessionService
	Renderer     *TemplateRenderer
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginPage renders the sign-in form.
// GET /login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Already signed in: skip the form
	if token := SessionTokenFromRequest(r); token != "" {
		if session, err := h.Sessions.Resolve(r.Context(), token); err == nil && session != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	data := map[string]any{
		"Title":       "Sign In",
		"CurrentPage": PageLogin,
		"RedirectURI": safeRedirectPath(r.URL.Query().Get("redirect_uri")),
		"Failed":      r.URL.Query().Get("failed") == "1",
	}
	if csrfToken := GetCSRFToken(r); csrfToken != "" {
		data["CSRFToken"] = csrfToken
	}

	if err := h.Renderer.RenderFull(w, r, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Login handles sign-in form submission.
// POST /login with identifier, secret, and optional redirect_uri fields.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	identifier := r.PostFormValue("identifier")
	secret := r.PostFormValue("secret")
	redirectURI := safeRedirectPath(r.PostFormValue("redirect_uri"))

	identity, err := h.Credentials.Verify(r.Context(), identifier, secret)
	if err != nil {
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			// Generic failure: no hint about which part was wrong, no session side effects
			h.redirectToLoginFailed(w, r, redirectURI)
			return
		}
		h.logger().ErrorContext(r.Context(), "credential verification failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session, err := h.Sessions.Create(r.Context(), identity)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "session creation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Fresh anti-forgery token on sign-in so nothing issued pre-login survives
	if _, err := h.Sessions.RotateAntiForgery(r.Context(), session.Token); err != nil {
		h.logger().WarnContext(r.Context(), "anti-forgery rotation failed", "error", err)
	}

	// The session cookie always carries the newly minted token; any cookie the
	// client held before sign-in is overwritten, never promoted.
	h.setSessionCookie(w, r, session)
	h.clearCookie(w, r, DefaultCSRFCookieName)

	http.Redirect(w, r, redirectURI, http.StatusSeeOther)
}

// Logout handles the sign-out endpoint.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if token := SessionTokenFromRequest(r); token != "" {
		if err := h.Sessions.Destroy(r.Context(), token); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
		// No-op on the destroyed session; a captured former token stays dead
		if _, err := h.Sessions.RotateAntiForgery(r.Context(), token); err != nil {
			h.logger().WarnContext(r.Context(), "anti-forgery rotation failed", "error", err)
		}
	}

	h.clearCookie(w, r, SessionCookieName)
	h.clearCookie(w, r, DefaultCSRFCookieName)

	// AJAX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": "/login",
		})
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	token := SessionTokenFromRequest(r)
	if token == "" {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
		})
		return
	}

	session, err := h.Sessions.Resolve(r.Context(), token)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "session resolution failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if session == nil {
		// Session is invalid or expired, clear the cookie
		h.clearCookie(w, r, SessionCookieName)
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":   session.UserID,
			"name": session.Name,
			"role": session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

// redirectToLoginFailed sends the client back to the sign-in form with a
// generic failure flag.
func (h *AuthHandlers) redirectToLoginFailed(w http.ResponseWriter, r *http.Request, redirectURI string) {
	u := url.URL{Path: "/login"}
	q := url.Values{}
	q.Set("failed", "1")
	if redirectURI != "" && redirectURI != "/" {
		q.Set("redirect_uri", redirectURI)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	isSecure := r.TLS != nil || isForwardedHTTPS(r)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie writes the session cookie based on the session's expiry.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	isSecure := r.TLS != nil || isForwardedHTTPS(r)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
	})
}
