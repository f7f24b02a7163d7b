package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/websubhamdevloper/votecore/internal/domain"
)

type sessionContextKey string

const contextKeySession sessionContextKey = "votecore-session"

type contextSetter interface {
	SetContext(context.Context)
}

// requireSession ensures the request carries a valid session token before
// invoking the handler.
func (r *Router) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureSession(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureSession validates the Authorization header and enriches the context
// with the Session the token carries.
func (r *Router) ensureSession(w http.ResponseWriter, req *http.Request) (context.Context, domain.Session, bool) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		r.respondError(w, http.StatusUnauthorized, "authentication required")
		return req.Context(), domain.Session{}, false
	}
	session, err := r.auth.Authorize(req.Context(), token)
	if err != nil {
		r.logger.Warn("session token validation failed", "error", err, "path", req.URL.Path)
		r.respondError(w, http.StatusUnauthorized, "authentication failed")
		return req.Context(), domain.Session{}, false
	}
	ctx := context.WithValue(req.Context(), contextKeySession, session)
	return ctx, session, true
}

// sessionFromContext extracts the authenticated session from context.
func sessionFromContext(ctx context.Context) (domain.Session, bool) {
	value := ctx.Value(contextKeySession)
	if value == nil {
		return domain.Session{}, false
	}
	session, ok := value.(domain.Session)
	return session, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
