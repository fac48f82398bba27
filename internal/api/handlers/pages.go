// pages.go — интерактивные страницы. Разметку отдаёт клиент, сервер
// возвращает описание страницы; доступ к страницам решает Gate.
package handlers

import (
	"net/http"

	"github.com/bigkaa/geoattend/internal/api/middleware"
	"github.com/bigkaa/geoattend/internal/domain/gatekeeper"
	"github.com/bigkaa/geoattend/internal/domain/rbac"
)

type pageResponse struct {
	Page string `json:"page"`
	Path string `json:"path"`
	Role string `json:"role,omitempty"`
}

// Root — GET /: на домашнюю страницу роли или на вход.
func (h *APIHandler) Root(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, gatekeeper.LoginPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, rbac.HomePath(s.Role), http.StatusFound)
}

// Page возвращает обработчик страницы с указанным именем.
func (h *APIHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := pageResponse{Page: name, Path: r.URL.Path}
		if s, ok := middleware.SessionFromContext(r.Context()); ok {
			resp.Role = s.Role
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
