// attendance.go — приём отметок посещаемости и история.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/geoattend/internal/domain/access"
	"github.com/bigkaa/geoattend/internal/domain/attendance"
	"github.com/bigkaa/geoattend/internal/domain/daywindow"
	"github.com/bigkaa/geoattend/internal/domain/geo"
	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/events"
	"github.com/bigkaa/geoattend/internal/repository"
)

// Исходы решения по отметке (label outcome).
const (
	outcomeAccepted = "accepted"
	outcomeDenied   = "denied"
	outcomeInvalid  = "invalid"
)

var attendanceDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ga_attendance_decisions_total",
	Help: "Решения по отметкам посещаемости по исходу (accepted, код отказа, denied, invalid).",
}, []string{"outcome"})

// SubmitInput — входные данные отметки.
type SubmitInput struct {
	SiteID      string
	Type        string
	Latitude    *float64
	Longitude   *float64
	FacePresent bool
}

// SubmitResult — принятая отметка.
type SubmitResult struct {
	Record   *model.AttendanceRecord
	Message  string
	Distance float64
}

// TodayStatus — отметки за текущий день и следующий ожидаемый тип.
type TodayStatus struct {
	Day     string
	Records []model.AttendanceRecord
	// Next — пусто, если цикл завершён
	Next     attendance.Type
	Complete bool
}

// AttendanceService — приём отметок и чтение истории.
type AttendanceService struct {
	users     repository.UserRepository
	grants    repository.GrantRepository
	records   repository.AttendanceRepository
	sites     *SiteCache
	days      *daywindow.Resolver
	publisher events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewAttendanceService создаёт сервис посещаемости.
// publisher == nil — события не публикуются.
func NewAttendanceService(
	users repository.UserRepository,
	grants repository.GrantRepository,
	records repository.AttendanceRepository,
	sites *SiteCache,
	days *daywindow.Resolver,
	publisher events.Publisher,
	logger *slog.Logger,
) *AttendanceService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &AttendanceService{
		users:     users,
		grants:    grants,
		records:   records,
		sites:     sites,
		days:      days,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "attendance_service")),
	}
}

// SetClock подменяет источник времени (для тестов).
func (s *AttendanceService) SetClock(now func() time.Time) {
	s.now = now
}

// Submit принимает отметку пользователя на объекте.
//
// Последовательность: проверка ввода, пользователь, объект, доступ,
// расстояние, отметки за день, решение движка, вставка.
// Уникальность (пользователь, день, тип) гарантирует БД: при гонке двух
// одинаковых отметок вторая вставка получает отказ DUPLICATE_TYPE.
func (s *AttendanceService) Submit(ctx context.Context, subject access.Subject, in SubmitInput) (*SubmitResult, error) {
	res, err := s.submit(ctx, subject, in)
	attendanceDecisionsTotal.WithLabelValues(outcomeOf(err)).Inc()
	return res, err
}

func (s *AttendanceService) submit(ctx context.Context, subject access.Subject, in SubmitInput) (*SubmitResult, error) {
	if in.SiteID == "" {
		return nil, validationError("siteId is required.")
	}
	if in.Latitude == nil || in.Longitude == nil || !geo.ValidCoordinate(*in.Latitude, *in.Longitude) {
		return nil, validationError("Location permission denied or invalid coordinates.")
	}

	if _, err := uuid.Parse(subject.UserID); err != nil {
		return nil, errUserNotFound
	}
	user, err := s.users.GetByID(ctx, subject.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	site, err := s.loadSite(ctx, in.SiteID)
	if err != nil {
		return nil, err
	}

	granted, err := s.grants.Exists(ctx, user.ID, site.ID)
	if err != nil {
		return nil, fmt.Errorf("проверка назначения: %w", err)
	}
	decision := access.CanSubmit(access.Subject{UserID: user.ID, Role: user.Role}, *site, granted)
	if !decision.Allowed {
		return nil, &AccessDeniedError{Reason: decision.Reason}
	}

	lat, lon := *in.Latitude, *in.Longitude
	distance := geo.DistanceMeters(site.Latitude, site.Longitude, lat, lon)

	now := s.now()
	window := s.days.Window(now)
	existing, err := s.records.ListForDay(ctx, user.ID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("получение отметок за день: %w", err)
	}

	rec, err := attendance.Decide(existing, attendance.Proposal{
		UserID:        user.ID,
		LocationID:    site.ID,
		Type:          in.Type,
		Latitude:      lat,
		Longitude:     lon,
		Distance:      distance,
		AllowedRadius: float64(site.Radius),
		FacePresent:   in.FacePresent,
		At:            now,
	})
	if err != nil {
		return nil, err
	}

	rec.ID = uuid.NewString()
	rec.AttendanceDay = window.Day

	if err := s.records.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, attendance.DuplicateRejection(attendance.Type(rec.Type))
		}
		return nil, fmt.Errorf("сохранение отметки: %w", err)
	}

	s.logger.Info("Отметка принята",
		slog.String("record_id", rec.ID),
		slog.String("user_id", rec.UserID),
		slog.String("location_id", rec.LocationID),
		slog.String("type", rec.Type),
		slog.Float64("distance", rec.Distance),
	)

	s.publish(ctx, rec)

	return &SubmitResult{
		Record:   rec,
		Message:  attendance.SuccessMessage(attendance.Type(rec.Type)),
		Distance: rec.Distance,
	}, nil
}

func (s *AttendanceService) publish(ctx context.Context, rec *model.AttendanceRecord) {
	err := s.publisher.PublishAttendanceRecorded(ctx, events.AttendanceRecorded{
		RecordID:      rec.ID,
		UserID:        rec.UserID,
		LocationID:    rec.LocationID,
		Type:          rec.Type,
		AttendanceDay: rec.AttendanceDay,
		Latitude:      rec.Latitude,
		Longitude:     rec.Longitude,
		Distance:      rec.Distance,
		RecordedAt:    rec.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("Ошибка публикации события отметки",
			slog.String("record_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Today возвращает отметки пользователя за текущий день.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*TodayStatus, error) {
	window := s.days.Window(s.now())
	records, err := s.records.ListForDay(ctx, userID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("получение отметок за день: %w", err)
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}

	next, ok := attendance.NextExpected(records)
	return &TodayStatus{
		Day:      window.Day,
		Records:  records,
		Next:     next,
		Complete: !ok,
	}, nil
}

// History возвращает отметки пользователя, новые первыми.
func (s *AttendanceService) History(ctx context.Context, userID string, limit, offset int) ([]model.AttendanceRecord, error) {
	records, err := s.records.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("получение истории: %w", err)
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	return records, nil
}

// SiteHistory возвращает отметки на объекте с именем и email пользователя.
func (s *AttendanceService) SiteHistory(ctx context.Context, siteID string, limit, offset int) (*model.Location, []model.SiteAttendanceEntry, error) {
	site, err := s.loadSite(ctx, siteID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := s.records.ListByLocation(ctx, site.ID, limit, offset)
	if err != nil {
		return nil, nil, fmt.Errorf("получение истории объекта: %w", err)
	}
	if entries == nil {
		entries = []model.SiteAttendanceEntry{}
	}
	return site, entries, nil
}

func (s *AttendanceService) loadSite(ctx context.Context, id string) (*model.Location, error) {
	return loadSite(ctx, s.sites, id)
}

// loadSite читает объект через кэш. Некорректный ID — как отсутствующий объект.
func loadSite(ctx context.Context, sites *SiteCache, id string) (*model.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errLocationNotFound
	}
	site, err := sites.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errLocationNotFound
		}
		return nil, fmt.Errorf("получение объекта: %w", err)
	}
	return site, nil
}

// outcomeOf — значение label outcome для результата отметки.
func outcomeOf(err error) string {
	if err == nil {
		return outcomeAccepted
	}
	var rej *attendance.Rejection
	if errors.As(err, &rej) {
		return rej.Code
	}
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return outcomeDenied
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return outcomeInvalid
	}
	if errors.Is(err, ErrNotFound) {
		return "not_found"
	}
	return "error"
}
