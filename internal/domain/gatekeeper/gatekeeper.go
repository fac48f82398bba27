// Пакет gatekeeper — классификация входящих запросов и политика доступа.
//
// Выполняется до любой доменной логики. На вход получает метод и путь
// запроса и проверенную личность (или её отсутствие), на выходе — вердикт:
// пропустить, отправить на страницу входа, ответить 401, вернуть на домашнюю
// страницу роли или ответить 403. Состояния между запросами нет.
package gatekeeper

import (
	"net/http"
	"strings"

	"github.com/bigkaa/geoattend/internal/domain/rbac"
)

// LoginPath — страница входа.
const LoginPath = "/login"

// Verdict — решение по запросу.
type Verdict string

const (
	Allow              Verdict = "allow"
	RedirectToLogin    Verdict = "redirect_to_login"
	RejectUnauthorized Verdict = "reject_unauthorized"
	RedirectToRoleHome Verdict = "redirect_to_role_home"
	RejectForbidden    Verdict = "reject_forbidden"
)

// Class — класс пути.
type Class string

const (
	// ClassPublic — доступен всем (health, metrics, вход/регистрация через API).
	ClassPublic Class = "public"
	// ClassEntry — страницы входа и регистрации.
	ClassEntry Class = "entry"
	// ClassAuthenticated — любой вошедший пользователь.
	ClassAuthenticated Class = "authenticated"
	// ClassAdminOnly — только ADMIN.
	ClassAdminOnly Class = "admin_only"
	// ClassUserOnly — только USER (личная отметка посещаемости).
	ClassUserOnly Class = "user_only"
)

// Request — то, что gatekeeper знает о запросе.
type Request struct {
	Method string
	Path   string
}

// Identity — проверенная личность из сессии.
type Identity struct {
	UserID string
	Role   string
}

// Decision — результат проверки.
type Decision struct {
	Verdict Verdict
	// Location — куда перенаправить (для Redirect*)
	Location string
	Class    Class
	// Interactive — страница (true) или JSON API (false)
	Interactive bool
}

// Evaluate применяет политику к запросу. id == nil — сессии нет
// или она невалидна.
func Evaluate(req Request, id *Identity) Decision {
	class, interactive := Classify(req)
	d := Decision{Verdict: Allow, Class: class, Interactive: interactive}

	switch class {
	case ClassPublic:
		return d
	case ClassEntry:
		if id != nil {
			return redirectHome(d, id.Role)
		}
		return d
	}

	if id == nil {
		if interactive {
			d.Verdict = RedirectToLogin
			d.Location = LoginPath
			return d
		}
		d.Verdict = RejectUnauthorized
		return d
	}

	switch class {
	case ClassAdminOnly:
		if id.Role != rbac.RoleAdmin {
			return deny(d, id.Role)
		}
	case ClassUserOnly:
		if id.Role != rbac.RoleUser {
			return deny(d, id.Role)
		}
	}

	return d
}

// deny — отказ по роли: страницы возвращают на домашнюю страницу,
// API отвечает 403.
func deny(d Decision, role string) Decision {
	if d.Interactive {
		return redirectHome(d, role)
	}
	d.Verdict = RejectForbidden
	return d
}

func redirectHome(d Decision, role string) Decision {
	d.Verdict = RedirectToRoleHome
	d.Location = rbac.HomePath(role)
	return d
}

// Classify определяет класс пути и признак интерактивности.
// Неизвестные пути требуют входа: /api/* как API, прочие как страницы.
func Classify(req Request) (Class, bool) {
	path := cleanPath(req.Path)

	switch {
	case path == "/health/live", path == "/health/ready", path == "/metrics":
		return ClassPublic, false
	case strings.HasPrefix(path, "/api/"):
		return classifyAPI(req.Method, path), false
	default:
		return classifyPage(path), true
	}
}

func classifyAPI(method, path string) Class {
	switch {
	case path == "/api/auth/login", path == "/api/auth/register", path == "/api/auth/logout":
		return ClassPublic

	case path == "/api/checkin", path == "/api/attendance/today":
		return ClassUserOnly

	case path == "/api/me", path == "/api/history":
		return ClassAuthenticated

	case hasSegmentPrefix(path, "/api/users"):
		return ClassAdminOnly

	case path == "/api/locations":
		if method == http.MethodGet || method == http.MethodHead {
			return ClassAuthenticated
		}
		return ClassAdminOnly

	case hasSegmentPrefix(path, "/api/locations"):
		rest := strings.TrimPrefix(path, "/api/locations/")
		// /api/locations/{id} — чтение доступно всем вошедшим,
		// изменение и вложенные ресурсы — только ADMIN
		if !strings.Contains(rest, "/") && (method == http.MethodGet || method == http.MethodHead) {
			return ClassAuthenticated
		}
		return ClassAdminOnly
	}

	return ClassAuthenticated
}

func classifyPage(path string) Class {
	switch {
	case path == "/login", path == "/register":
		return ClassEntry
	case path == "/home", hasSegmentPrefix(path, "/attendance"):
		return ClassUserOnly
	case path == "/dashboard", hasSegmentPrefix(path, "/locations"), hasSegmentPrefix(path, "/users"):
		return ClassAdminOnly
	}
	return ClassAuthenticated
}

// hasSegmentPrefix — path равен prefix или продолжается после него через "/".
func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// cleanPath убирает завершающий слэш (кроме корня).
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			return "/"
		}
	}
	return p
}
