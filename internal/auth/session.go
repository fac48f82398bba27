// Пакет auth — сессии geoattend: выпуск и проверка подписанных токенов (HS256),
// транспорт токена в cookie / заголовке Authorization и хеширование паролей.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/geoattend/internal/domain/rbac"
)

// Issuer — значение iss в токенах сессии.
const Issuer = "geoattend"

// ErrEmptySecret — секрет подписи не задан. Фатальная ошибка при старте.
var ErrEmptySecret = errors.New("секрет подписи сессий не задан")

// Identity — утверждение о личности, которое несёт токен.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// Session — проверенная сессия.
type Session struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// sessionClaims — claims токена сессии.
type sessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authority выпускает и проверяет токены сессии.
// Без состояния, безопасен для конкурентного использования.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option — опция Authority.
type Option func(*Authority)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		a.now = now
	}
}

// NewAuthority создаёт Authority. Пустой секрет или неположительный TTL — ошибка.
func NewAuthority(secret string, ttl time.Duration, opts ...Option) (*Authority, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("некорректное время жизни сессии: %s", ttl)
	}

	a := &Authority{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// TTL возвращает время жизни сессии.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// Issue выпускает токен для identity. Срок жизни фиксирован, продления нет.
func (a *Authority) Issue(id Identity) (token string, expiresAt time.Time, err error) {
	now := a.now().Truncate(time.Second)
	expiresAt = now.Add(a.ttl)

	claims := &sessionClaims{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return token, expiresAt, nil
}

// Verify проверяет токен. Любая причина отказа (формат, подпись, срок,
// неполные claims) даёт ok == false без подробностей.
// Токен валиден строго до момента истечения.
func (a *Authority) Verify(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	if claims.UserID == "" || !rbac.IsValidRole(claims.Role) {
		return nil, false
	}

	s := &Session{
		Identity: Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
			Role:   claims.Role,
		},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, true
}
