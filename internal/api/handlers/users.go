// users.go — управление пользователями и назначениями (ADMIN).
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/geoattend/internal/api/errors"
	"github.com/bigkaa/geoattend/internal/service"
)

type userWithGrantsJSON struct {
	userJSON
	LocationIDs []string `json:"locationIds"`
}

type usersResponse struct {
	Users []userWithGrantsJSON `json:"users"`
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userResponse struct {
	User userJSON `json:"user"`
}

// updateUserRequest — locationIds разбирается отдельно: отсутствие поля
// и пустой массив означают разное.
type updateUserRequest struct {
	Role        *string         `json:"role"`
	LocationIDs json.RawMessage `json:"locationIds"`
}

type updateUserResponse struct {
	User        userJSON `json:"user"`
	LocationIDs []string `json:"locationIds"`
	Message     string   `json:"message"`
}

// ListUsers — GET /api/users.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]userWithGrantsJSON, 0, len(list))
	for _, u := range list {
		ids := u.LocationIDs
		if ids == nil {
			ids = []string{}
		}
		items = append(items, userWithGrantsJSON{userJSON: toUserJSON(u.User), LocationIDs: ids})
	}

	writeJSON(w, http.StatusOK, usersResponse{Users: items})
}

// CreateUser — POST /api/users.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Create(r.Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: toUserJSON(u)})
}

// UpdateUser — PATCH /api/users/{id}: роль и/или полная замена назначений.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ids, ok := parseLocationIDs(req.LocationIDs)
	if !ok {
		apierrors.ValidationError(w, "locationIds array is required.")
		return
	}

	res, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateUserInput{
		Role:        req.Role,
		LocationIDs: ids,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateUserResponse{
		User:        toUserJSON(res.User),
		LocationIDs: res.LocationIDs,
		Message:     "User location access updated successfully.",
	})
}

// parseLocationIDs: поле отсутствует или null — (nil, true);
// массив строк — (непустой срез, true); всё остальное — (nil, false).
func parseLocationIDs(raw json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	if trimmed[0] != '[' {
		return nil, false
	}
	ids := []string{}
	if err := json.Unmarshal(trimmed, &ids); err != nil {
		return nil, false
	}
	return ids, true
}
