// me.go — профиль текущего пользователя.
package handlers

import "net/http"

type meResponse struct {
	User                    userJSON `json:"user"`
	AssignedLocationCount   int      `json:"assignedLocationCount"`
	AttendanceLocationReady bool     `json:"attendanceLocationReady"`
}

type updateMeRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// GetMe — GET /api/me.
func (h *APIHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	p, err := h.users.Me(r.Context(), subj.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		User:                    toUserJSON(p.User),
		AssignedLocationCount:   p.AssignedLocationCount,
		AttendanceLocationReady: p.AssignedLocationCount > 0,
	})
}

// UpdateMe — PATCH /api/me: имя и/или пароль.
func (h *APIHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	var req updateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.users.UpdateProfile(r.Context(), subj.UserID, req.Name, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Profile updated successfully."})
}
