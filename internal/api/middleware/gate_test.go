package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/geoattend/internal/auth"
)

func newGate(t *testing.T) (*auth.Authority, http.Handler) {
	t.Helper()
	authority, err := auth.NewAuthority("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	cookies := auth.NewCookieTransport("ga_session", false, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := ""
		if s, ok := SessionFromContext(r.Context()); ok {
			role = s.Role
		}
		w.Header().Set("X-Role", role)
		w.WriteHeader(http.StatusOK)
	})
	return authority, Gate(authority, cookies, logger)(next)
}

func issue(t *testing.T, a *auth.Authority, role string) string {
	t.Helper()
	token, _, err := a.Issue(auth.Identity{UserID: "u-1", Email: "u@example.com", Name: "U", Role: role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestGate(t *testing.T) {
	authority, h := newGate(t)
	userTok := issue(t, authority, "USER")
	adminTok := issue(t, authority, "ADMIN")

	tests := []struct {
		name         string
		method       string
		path         string
		bearer       string
		cookie       string
		wantStatus   int
		wantLocation string
		wantRole     string
	}{
		{"health без сессии", "GET", "/health/live", "", "", 200, "", ""},
		{"API без сессии", "GET", "/api/me", "", "", 401, "", ""},
		{"страница без сессии", "GET", "/home", "", "", 302, "/login", ""},
		{"API с сессией", "GET", "/api/me", userTok, "", 200, "", "USER"},
		{"cookie с сессией", "GET", "/api/me", "", adminTok, 200, "", "ADMIN"},
		{"USER в admin API", "POST", "/api/locations", userTok, "", 403, "", ""},
		{"USER на admin странице", "GET", "/dashboard", userTok, "", 302, "/home", ""},
		{"ADMIN на отметке", "POST", "/api/checkin", adminTok, "", 403, "", ""},
		{"ADMIN на странице отметки", "GET", "/attendance", adminTok, "", 302, "/dashboard", ""},
		{"вошедший на /login", "GET", "/login", "", userTok, 302, "/home", ""},
		{"/login без сессии", "GET", "/login", "", "", 200, "", ""},
		{"испорченный токен", "GET", "/api/me", "garbage", "", 401, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "ga_session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if rec.Code != tt.wantStatus {
				t.Fatalf("статус = %d, хотели %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, хотели %q", loc, tt.wantLocation)
			}
			if rec.Code == 200 {
				if role := rec.Header().Get("X-Role"); role != tt.wantRole {
					t.Errorf("роль в контексте = %q, хотели %q", role, tt.wantRole)
				}
			}
			if rec.Code == 401 {
				var body struct {
					Error struct{ Code, Message string } `json:"error"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("тело не JSON: %v", err)
				}
				if body.Error.Message != "Unauthorized." {
					t.Errorf("message = %q", body.Error.Message)
				}
			}
		})
	}
}

// TestGate_ClearsInvalidCookie проверяет удаление невалидной cookie.
func TestGate_ClearsInvalidCookie(t *testing.T) {
	_, h := newGate(t)

	r := httptest.NewRequest("GET", "/home", nil)
	r.AddCookie(&http.Cookie{Name: "ga_session", Value: "expired-or-forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusFound {
		t.Fatalf("статус = %d, хотели 302", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ga_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("невалидная cookie не удалена")
	}
}
