package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the default name for the anonymous CSRF cookie.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the default name for the CSRF header (canonical form).
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFFormField is the default name for the CSRF form field.
	DefaultCSRFFormField = "csrf_token"
	// DefaultCSRFTokenLength is the default length of the CSRF token in bytes.
	DefaultCSRFTokenLength = 32
)

// AntiForgery returns a middleware that validates the session-bound anti-forgery
// token on state-changing requests (POST, PUT, DELETE, PATCH). The expected token
// lives in the session record, so destroying the session invalidates it and a
// captured former token cannot re-arm forms.
//
// The submitted token is read from the X-Csrf-Token header (AJAX) or the
// csrf_token form field (standard form submissions). The middleware must run
// after RequireCapability so the session is present in the request context.
// GET, HEAD, OPTIONS, and TRACE requests are exempt.
func AntiForgery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			if session == nil {
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			// Expose the token for templates rendering forms
			ctx := setCSRFTokenInContext(r.Context(), session.CSRFToken)
			r = r.WithContext(ctx)

			if requiresCSRFValidation(r.Method) {
				if !matchesSubmittedToken(r, session.CSRFToken) {
					http.Error(w, "CSRF token validation failed", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CSRFConfig holds configuration for the anonymous CSRF protection middleware.
type CSRFConfig struct {
	// CookieName is the name of the CSRF cookie (default: "csrf_token")
	CookieName string
	// CookieDomain is the domain for the CSRF cookie
	CookieDomain string
	// TokenLength is the length of the CSRF token in bytes (default: 32)
	TokenLength int
}

// CSRFProtection returns a middleware that protects anonymous endpoints (the
// sign-in form) against CSRF using the double-submit cookie pattern. It
// generates a random token, stores it in a cookie, and validates it on
// state-changing requests. Authenticated endpoints use AntiForgery instead.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = DefaultCSRFTokenLength
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieValue(r, cfg.CookieName)

			// Generate token only if missing
			if token == "" {
				var err error
				token, err = generateCSRFToken(cfg.TokenLength)
				if err != nil {
					http.Error(w, "unable to generate CSRF token", http.StatusInternalServerError)
					return
				}
				setCSRFCookie(w, r, csrfCookieParams{
					Name:   cfg.CookieName,
					Domain: cfg.CookieDomain,
					Token:  token,
				})
			}

			// Add token to request context for template access
			ctx := setCSRFTokenInContext(r.Context(), token)
			r = r.WithContext(ctx)

			if requiresCSRFValidation(r.Method) {
				if !matchesSubmittedToken(r, token) {
					http.Error(w, "CSRF token validation failed", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requiresCSRFValidation returns true if the HTTP method requires CSRF validation.
// Safe methods (GET, HEAD, OPTIONS, TRACE) are exempt.
func requiresCSRFValidation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// generateCSRFToken generates a cryptographically secure random CSRF token.
// Returns an error if random generation fails - we fail closed rather than
// falling back to a predictable token.
func generateCSRFToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// csrfCookieParams groups optional attributes needed to set the CSRF cookie.
type csrfCookieParams struct {
	Name   string
	Domain string
	Token  string
}

// setCSRFCookie sets the CSRF token cookie.
func setCSRFCookie(w http.ResponseWriter, r *http.Request, params csrfCookieParams) {
	// Check if request is over HTTPS, accounting for proxies
	isSecure := r.TLS != nil || isForwardedHTTPS(r)

	http.SetCookie(w, &http.Cookie{
		Name:     params.Name,
		Value:    params.Token,
		Path:     "/",
		Domain:   params.Domain,
		HttpOnly: false, // Must be readable by page scripts submitting the header
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode, // Strict for CSRF tokens
		MaxAge:   3600 * 12,               // 12 hours
	})
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	xfProto := r.Header.Get("X-Forwarded-Proto")
	if xfProto == "" {
		return false
	}

	for _, proto := range strings.Split(xfProto, ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}

	return false
}

// matchesSubmittedToken validates the token submitted with the request against
// the expected value. It checks both the X-Csrf-Token header (AJAX) and the
// csrf_token form field. Uses constant-time comparison to prevent timing
// side-channel attacks.
func matchesSubmittedToken(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}

	// Check header first (for AJAX requests)
	headerToken := r.Header.Get(DefaultCSRFHeaderName)
	if headerToken != "" {
		return subtle.ConstantTimeCompare([]byte(headerToken), []byte(expected)) == 1
	}

	// Check form field (for standard form submissions)
	// Only parse form for form-encoded content types
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return false
		}
		formToken := r.FormValue(DefaultCSRFFormField)
		if formToken != "" {
			return subtle.ConstantTimeCompare([]byte(formToken), []byte(expected)) == 1
		}
	}

	return false
}

// csrfTokenKey is an unexported context key type for CSRF token storage.
type csrfTokenKey struct{}

// setCSRFTokenInContext stores the CSRF token in the request context.
func setCSRFTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// GetCSRFToken retrieves the CSRF token from the request context.
// This is used by templates to include the token in forms.
func GetCSRFToken(r *http.Request) string {
	if val := r.Context().Value(csrfTokenKey{}); val != nil {
		if token, ok := val.(string); ok {
			return token
		}
	}
	return ""
}
