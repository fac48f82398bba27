package auth

import (
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestAuthority(t *testing.T, now *time.Time) *Authority {
	t.Helper()
	a, err := NewAuthority("test-secret", 24*time.Hour, WithClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	return a
}

func TestNewAuthority_Errors(t *testing.T) {
	if _, err := NewAuthority("", time.Hour); err != ErrEmptySecret {
		t.Errorf("пустой секрет: ошибка = %v, ожидается ErrEmptySecret", err)
	}
	if _, err := NewAuthority("s", 0); err == nil {
		t.Error("нулевой TTL: ожидается ошибка")
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := fixedNow
	a := newTestAuthority(t, &now)

	id := Identity{UserID: "u-1", Email: "ann@example.com", Name: "Ann", Role: "USER"}
	token, exp, err := a.Issue(id)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.Equal(fixedNow.Add(24 * time.Hour)) {
		t.Errorf("expiresAt = %v, хотели %v", exp, fixedNow.Add(24*time.Hour))
	}

	s, ok := a.Verify(token)
	if !ok {
		t.Fatal("Verify: ожидается валидный токен")
	}
	if s.Identity != id {
		t.Errorf("identity = %+v, хотели %+v", s.Identity, id)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, хотели %v", s.ExpiresAt, exp)
	}
}

func TestVerify_Expiry(t *testing.T) {
	now := fixedNow
	a := newTestAuthority(t, &now)

	token, exp, err := a.Issue(Identity{UserID: "u-1", Role: "ADMIN"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = exp.Add(-time.Second)
	if _, ok := a.Verify(token); !ok {
		t.Error("за секунду до истечения токен должен быть валиден")
	}

	now = exp
	if _, ok := a.Verify(token); ok {
		t.Error("в момент истечения токен должен быть невалиден")
	}
}

func TestVerify_Rejects(t *testing.T) {
	now := fixedNow
	a := newTestAuthority(t, &now)
	token, _, err := a.Issue(Identity{UserID: "u-1", Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewAuthority("other-secret", time.Hour, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	foreign, _, err := other.Issue(Identity{UserID: "u-1", Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	badRole, _, err := a.Issue(Identity{UserID: "u-1", Role: "ROOT"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noUser, _, err := a.Issue(Identity{Role: "USER"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"пустой", ""},
		{"мусор", "not-a-token"},
		{"чужая подпись", foreign},
		{"изменённый payload", tampered},
		{"неизвестная роль", badRole},
		{"без пользователя", noUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := a.Verify(tt.token); ok {
				t.Error("ожидается отказ")
			}
		})
	}
}
