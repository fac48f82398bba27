// Пакет handlers — HTTP-обработчики JSON API geoattend.
// handler.go — общий обработчик, DTO и вспомогательные функции.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/bigkaa/geoattend/internal/api/errors"
	"github.com/bigkaa/geoattend/internal/api/middleware"
	"github.com/bigkaa/geoattend/internal/auth"
	"github.com/bigkaa/geoattend/internal/domain/access"
	"github.com/bigkaa/geoattend/internal/domain/attendance"
	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/service"
)

// maxBodyBytes — предельный размер тела запроса.
const maxBodyBytes = 1 << 20

// AttendanceService — операции с отметками.
type AttendanceService interface {
	Submit(ctx context.Context, subject access.Subject, in service.SubmitInput) (*service.SubmitResult, error)
	Today(ctx context.Context, userID string) (*service.TodayStatus, error)
	History(ctx context.Context, userID string, limit, offset int) ([]model.AttendanceRecord, error)
	SiteHistory(ctx context.Context, siteID string, limit, offset int) (*model.Location, []model.SiteAttendanceEntry, error)
}

// LocationService — операции с объектами.
type LocationService interface {
	List(ctx context.Context, subject access.Subject) ([]*model.Location, error)
	Get(ctx context.Context, subject access.Subject, id string) (*model.Location, error)
	Create(ctx context.Context, in service.CreateLocationInput) (*model.Location, error)
	Update(ctx context.Context, id string, in service.UpdateLocationInput) (*model.Location, error)
	Delete(ctx context.Context, id string) error
}

// UserService — операции с пользователями и учётными данными.
type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Me(ctx context.Context, userID string) (*service.Profile, error)
	UpdateProfile(ctx context.Context, userID string, name, password *string) error
	List(ctx context.Context) ([]service.UserWithGrants, error)
	Create(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, userID string, in service.UpdateUserInput) (*service.UserWithGrants, error)
}

// APIHandler — обработчик JSON API.
type APIHandler struct {
	attendance AttendanceService
	locations  LocationService
	users      UserService
	cookies    *auth.CookieTransport
	logger     *slog.Logger
}

// NewAPIHandler создаёт обработчик API.
func NewAPIHandler(
	attendance AttendanceService,
	locations LocationService,
	users UserService,
	cookies *auth.CookieTransport,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		attendance: attendance,
		locations:  locations,
		users:      users,
		cookies:    cookies,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// --- DTO ---

type userJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserJSON(u *model.User) userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

type locationJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    int       `json:"radius"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toLocationJSON(l *model.Location) locationJSON {
	return locationJSON{
		ID:        l.ID,
		Name:      l.Name,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Radius:    l.Radius,
		IsActive:  l.IsActive,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toLocationsJSON(locs []*model.Location) []locationJSON {
	result := make([]locationJSON, 0, len(locs))
	for _, l := range locs {
		result = append(result, toLocationJSON(l))
	}
	return result
}

type recordJSON struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	LocationID    string    `json:"locationId"`
	Type          string    `json:"type"`
	TypeLabel     string    `json:"typeLabel"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Distance      float64   `json:"distance"`
	FaceDetected  bool      `json:"faceDetected"`
	AttendanceDay string    `json:"attendanceDay"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toRecordJSON(r *model.AttendanceRecord) recordJSON {
	return recordJSON{
		ID:            r.ID,
		UserID:        r.UserID,
		LocationID:    r.LocationID,
		Type:          r.Type,
		TypeLabel:     attendance.Label(attendance.Type(r.Type)),
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Distance:      r.Distance,
		FaceDetected:  r.FaceDetected,
		AttendanceDay: r.AttendanceDay,
		CreatedAt:     r.CreatedAt,
	}
}

func toRecordsJSON(records []model.AttendanceRecord) []recordJSON {
	result := make([]recordJSON, 0, len(records))
	for i := range records {
		result = append(result, toRecordJSON(&records[i]))
	}
	return result
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// messageResponse — ответ с одним сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON читает тело запроса. Ошибка — некорректный JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apierrors.ValidationError(w, "Invalid JSON body.")
		return false
	}
	return true
}

// subject возвращает субъекта из сессии. Без сессии отвечает 401.
func subject(w http.ResponseWriter, r *http.Request) (access.Subject, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		apierrors.Unauthorized(w)
		return access.Subject{}, false
	}
	return access.Subject{UserID: s.UserID, Role: s.Role}, true
}

// paginationDefaults нормализует limit и offset из query-параметров.
// По умолчанию limit 100, не больше 1000.
func paginationDefaults(r *http.Request) (int, int) {
	l := 100
	o := 0

	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		l = v
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		o = v
	}

	return l, o
}

// writeServiceError отображает ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и возвращаются как 500 без деталей.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr      *service.ValidationError
		rejection *attendance.Rejection
		denied    *service.AccessDeniedError
		notFound  *service.NotFoundError
		conflict  *service.ConflictError
	)

	switch {
	case errors.As(err, &verr):
		apierrors.ValidationError(w, verr.Message)
	case errors.As(err, &rejection):
		apierrors.Rejection(w, rejection.Code, rejection.Message)
	case errors.As(err, &denied):
		apierrors.Forbidden(w, denied.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.InvalidCredentials(w)
	case errors.As(err, &notFound):
		apierrors.NotFound(w, notFound.Message)
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Not found.")
	case errors.As(err, &conflict):
		apierrors.Conflict(w, conflict.Message)
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, "Conflict.")
	default:
		h.logger.Error("Внутренняя ошибка",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w)
	}
}
