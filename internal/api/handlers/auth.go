// auth.go — регистрация, вход и выход.
package handlers

import (
	"net/http"
	"time"

	"github.com/bigkaa/geoattend/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message    string    `json:"message"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	RedirectTo string    `json:"redirectTo"`
	User       userJSON  `json:"user"`
}

// Register — POST /api/auth/register.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Register success. Your account is waiting for admin to assign attendance location.",
	})
}

// Login — POST /api/auth/login. Устанавливает cookie сессии и возвращает токен.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.cookies.Set(w, res.Token)
	writeJSON(w, http.StatusOK, loginResponse{
		Message:    "Login success",
		Token:      res.Token,
		ExpiresAt:  res.ExpiresAt,
		RedirectTo: res.RedirectTo,
		User:       toUserJSON(res.User),
	})
}

// Logout — POST /api/auth/logout. Сессия без состояния: удаляется только cookie.
func (h *APIHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
