// attendance.go — отметки посещаемости и история.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/geoattend/internal/domain/attendance"
	"github.com/bigkaa/geoattend/internal/service"
)

type checkinRequest struct {
	SiteID    string   `json:"siteId"`
	Type      string   `json:"type"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// FacePresent — результат проверки лица на клиенте
	FacePresent  *bool `json:"facePresent"`
	FaceDetected *bool `json:"faceDetected"`
}

type checkinResponse struct {
	Message  string     `json:"message"`
	Distance float64    `json:"distance"`
	Record   recordJSON `json:"record"`
}

type nextTypeJSON struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type todayResponse struct {
	Day          string        `json:"day"`
	Records      []recordJSON  `json:"records"`
	NextExpected *nextTypeJSON `json:"nextExpected"`
	Complete     bool          `json:"complete"`
}

type historyResponse struct {
	Items []recordJSON `json:"items"`
}

type siteHistoryItem struct {
	recordJSON
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type siteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type siteHistoryResponse struct {
	Location siteRef           `json:"location"`
	Items    []siteHistoryItem `json:"items"`
}

// Checkin — POST /api/checkin.
func (h *APIHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	var req checkinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	face := false
	switch {
	case req.FacePresent != nil:
		face = *req.FacePresent
	case req.FaceDetected != nil:
		face = *req.FaceDetected
	}

	res, err := h.attendance.Submit(r.Context(), subj, service.SubmitInput{
		SiteID:      req.SiteID,
		Type:        req.Type,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		FacePresent: face,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, checkinResponse{
		Message:  res.Message,
		Distance: res.Distance,
		Record:   toRecordJSON(res.Record),
	})
}

// Today — GET /api/attendance/today.
func (h *APIHandler) Today(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	status, err := h.attendance.Today(r.Context(), subj.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := todayResponse{
		Day:      status.Day,
		Records:  toRecordsJSON(status.Records),
		Complete: status.Complete,
	}
	if !status.Complete {
		resp.NextExpected = &nextTypeJSON{Type: string(status.Next), Label: attendance.Label(status.Next)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// History — GET /api/history: собственные отметки, новые первыми.
func (h *APIHandler) History(w http.ResponseWriter, r *http.Request) {
	subj, ok := subject(w, r)
	if !ok {
		return
	}

	limit, offset := paginationDefaults(r)
	records, err := h.attendance.History(r.Context(), subj.UserID, limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{Items: toRecordsJSON(records)})
}

// LocationHistory — GET /api/locations/{id}/history.
func (h *APIHandler) LocationHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationDefaults(r)
	site, entries, err := h.attendance.SiteHistory(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]siteHistoryItem, 0, len(entries))
	for i := range entries {
		items = append(items, siteHistoryItem{
			recordJSON: toRecordJSON(&entries[i].Record),
			UserName:   entries[i].UserName,
			UserEmail:  entries[i].UserEmail,
		})
	}

	writeJSON(w, http.StatusOK, siteHistoryResponse{
		Location: siteRef{ID: site.ID, Name: site.Name},
		Items:    items,
	})
}
