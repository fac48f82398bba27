// gate.go — проверка сессии и политики доступа на каждом запросе.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/geoattend/internal/api/errors"
	"github.com/bigkaa/geoattend/internal/auth"
	"github.com/bigkaa/geoattend/internal/domain/gatekeeper"
)

// contextKey — тип для ключей контекста.
type contextKey string

// ContextKeySession — проверенная сессия в контексте запроса.
const ContextKeySession contextKey = "session"

// SessionVerifier проверяет токен сессии.
type SessionVerifier interface {
	Verify(token string) (*auth.Session, bool)
}

// Gate возвращает middleware, которое проверяет токен (cookie или Bearer),
// применяет политику gatekeeper и кладёт сессию в контекст.
// Невалидная cookie удаляется из браузера.
func Gate(verifier SessionVerifier, cookies *auth.CookieTransport, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "gate"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session *auth.Session

			token, fromCookie := cookies.TokenFromRequest(r)
			if token != "" {
				s, ok := verifier.Verify(token)
				if ok {
					session = s
				} else if fromCookie {
					cookies.Clear(w)
				}
			}

			var id *gatekeeper.Identity
			if session != nil {
				id = &gatekeeper.Identity{UserID: session.UserID, Role: session.Role}
			}

			d := gatekeeper.Evaluate(gatekeeper.Request{Method: r.Method, Path: r.URL.Path}, id)

			switch d.Verdict {
			case gatekeeper.Allow:
				if session != nil {
					r = r.WithContext(WithSession(r.Context(), session))
				}
				next.ServeHTTP(w, r)
			case gatekeeper.RedirectToLogin, gatekeeper.RedirectToRoleHome:
				http.Redirect(w, r, d.Location, http.StatusFound)
			case gatekeeper.RejectUnauthorized:
				apierrors.Unauthorized(w)
			case gatekeeper.RejectForbidden:
				logger.Debug("Доступ запрещён",
					slog.String("path", r.URL.Path),
					slog.String("role", session.Role),
				)
				apierrors.Forbidden(w, apierrors.MessageForbidden)
			default:
				apierrors.InternalError(w)
			}
		})
	}
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *auth.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// SessionFromContext извлекает сессию из контекста.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(ContextKeySession).(*auth.Session)
	return s, ok && s != nil
}
