package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieTransport — перенос токена сессии в HTTP cookie.
// Cookie HttpOnly, SameSite=Lax, Path=/, Max-Age равен времени жизни сессии.
type CookieTransport struct {
	name   string
	secure bool
	maxAge time.Duration
}

// NewCookieTransport создаёт транспорт сессии.
func NewCookieTransport(name string, secure bool, maxAge time.Duration) *CookieTransport {
	return &CookieTransport{name: name, secure: secure, maxAge: maxAge}
}

// Name возвращает имя cookie.
func (c *CookieTransport) Name() string {
	return c.name
}

// Set устанавливает cookie с токеном.
func (c *CookieTransport) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear удаляет cookie (выход).
func (c *CookieTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest извлекает токен: сначала из cookie, затем из
// заголовка "Authorization: Bearer <token>".
// fromCookie — токен взят из cookie.
func (c *CookieTransport) TokenFromRequest(r *http.Request) (token string, fromCookie bool) {
	if cookie, err := r.Cookie(c.name); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1]), false
	}
	return "", false
}
