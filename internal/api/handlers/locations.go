// locations.go — объекты (геозоны).
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/geoattend/internal/service"
)

type locationRequest struct {
	Name      *string  `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *float64 `json:"radius"`
	IsActive  *bool    `json:"isActive"`
}

type locationResponse struct {
	Location locationJSON `json:"location"`
	Message  string       `json:"message,omitempty"`
}

type locationsResponse struct {
	Locations []locationJSON `json:"locations"`
}

// ListLocations — GET /api/locations. ADMIN видит все объекты,
// USER — только назначенные активные.
func (h *APIHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	locs, err := h.locations.List(r.Context(), subj)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, locationsResponse{Locations: toLocationsJSON(locs)})
}

// GetLocation — GET /api/locations/{id}.
func (h *APIHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	loc, err := h.locations.Get(r.Context(), subj, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, locationResponse{Location: toLocationJSON(loc)})
}

// CreateLocation — POST /api/locations.
func (h *APIHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := service.CreateLocationInput{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}

	loc, err := h.locations.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, locationResponse{Location: toLocationJSON(loc)})
}

// UpdateLocation — PATCH /api/locations/{id}.
func (h *APIHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	loc, err := h.locations.Update(r.Context(), chi.URLParam(r, "id"), service.UpdateLocationInput{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, locationResponse{
		Location: toLocationJSON(loc),
		Message:  "Location updated successfully.",
	})
}

// DeleteLocation — DELETE /api/locations/{id}.
func (h *APIHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.locations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Location deleted successfully."})
}
