// locations.go — управление объектами (геозонами).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/bigkaa/geoattend/internal/domain/access"
	"github.com/bigkaa/geoattend/internal/domain/geo"
	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/domain/rbac"
	"github.com/bigkaa/geoattend/internal/repository"
)

// CreateLocationInput — данные нового объекта.
// Radius == nil — радиус по умолчанию.
type CreateLocationInput struct {
	Name      string
	Latitude  *float64
	Longitude *float64
	Radius    *float64
}

// UpdateLocationInput — частичное изменение объекта. nil — поле не меняется.
type UpdateLocationInput struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
	Radius    *float64
	IsActive  *bool
}

// LocationService — CRUD объектов с учётом ролей.
type LocationService struct {
	repo          repository.LocationRepository
	grants        repository.GrantRepository
	sites         *SiteCache
	defaultRadius int
	logger        *slog.Logger
}

// NewLocationService создаёт сервис объектов.
func NewLocationService(
	repo repository.LocationRepository,
	grants repository.GrantRepository,
	sites *SiteCache,
	defaultRadius int,
	logger *slog.Logger,
) *LocationService {
	return &LocationService{
		repo:          repo,
		grants:        grants,
		sites:         sites,
		defaultRadius: defaultRadius,
		logger:        logger.With(slog.String("component", "location_service")),
	}
}

// List возвращает объекты, видимые субъекту.
// ADMIN — все объекты, новые первыми; USER — активные назначенные, по имени.
func (s *LocationService) List(ctx context.Context, subject access.Subject) ([]*model.Location, error) {
	var (
		sites []*model.Location
		err   error
	)
	if rbac.IsAdmin(subject.Role) {
		sites, err = s.repo.List(ctx)
	} else {
		sites, err = s.repo.ListGrantedActive(ctx, subject.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("получение объектов: %w", err)
	}
	if sites == nil {
		sites = []*model.Location{}
	}
	return sites, nil
}

// Get возвращает объект. Для USER недоступный объект неотличим от отсутствующего.
func (s *LocationService) Get(ctx context.Context, subject access.Subject, id string) (*model.Location, error) {
	site, err := loadSite(ctx, s.sites, id)
	if err != nil {
		return nil, err
	}
	if rbac.IsAdmin(subject.Role) {
		return site, nil
	}

	granted, err := s.grants.Exists(ctx, subject.UserID, site.ID)
	if err != nil {
		return nil, fmt.Errorf("проверка назначения: %w", err)
	}
	if !access.CanSubmit(subject, *site, granted).Allowed {
		return nil, errLocationNotFound
	}
	return site, nil
}

// Create создаёт активный объект.
func (s *LocationService) Create(ctx context.Context, in CreateLocationInput) (*model.Location, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("Location name is required.")
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, validationError("latitude and longitude are required.")
	}
	if !geo.ValidCoordinate(*in.Latitude, *in.Longitude) {
		return nil, validationError("latitude and longitude are out of range.")
	}

	radius := s.defaultRadius
	if in.Radius != nil {
		r, ok := positiveInt(*in.Radius)
		if !ok {
			return nil, validationError("radius must be a positive integer.")
		}
		radius = r
	}

	loc := &model.Location{
		ID:        uuid.NewString(),
		Name:      name,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Radius:    radius,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, loc); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: "Location name already exists."}
		}
		return nil, fmt.Errorf("создание объекта: %w", err)
	}

	s.logger.Info("Объект создан",
		slog.String("location_id", loc.ID),
		slog.String("name", loc.Name),
		slog.Int("radius", loc.Radius),
	)
	return loc, nil
}

// Update частично изменяет объект.
func (s *LocationService) Update(ctx context.Context, id string, in UpdateLocationInput) (*model.Location, error) {
	if in.Name == nil && in.Latitude == nil && in.Longitude == nil && in.Radius == nil && in.IsActive == nil {
		return nil, validationError("No valid fields to update.")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, errLocationNotFound
	}

	loc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errLocationNotFound
		}
		return nil, fmt.Errorf("получение объекта: %w", err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("Location name is required.")
		}
		loc.Name = name
	}
	if in.Latitude != nil {
		loc.Latitude = *in.Latitude
	}
	if in.Longitude != nil {
		loc.Longitude = *in.Longitude
	}
	if !geo.ValidCoordinate(loc.Latitude, loc.Longitude) {
		return nil, validationError("latitude and longitude are out of range.")
	}
	if in.Radius != nil {
		r, ok := positiveInt(*in.Radius)
		if !ok {
			return nil, validationError("radius must be a positive integer.")
		}
		loc.Radius = r
	}
	if in.IsActive != nil {
		loc.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, loc); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, errLocationNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, &ConflictError{Message: "Location name already exists."}
		}
		return nil, fmt.Errorf("изменение объекта: %w", err)
	}
	s.sites.Invalidate(loc.ID)

	s.logger.Info("Объект изменён",
		slog.String("location_id", loc.ID),
		slog.Bool("is_active", loc.IsActive),
	)
	return loc, nil
}

// Delete удаляет объект. Объект с отметками удалить нельзя.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errLocationNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return errLocationNotFound
		case errors.Is(err, repository.ErrConflict):
			return &ConflictError{Message: "Location has attendance records and cannot be deleted."}
		}
		return fmt.Errorf("удаление объекта: %w", err)
	}
	s.sites.Invalidate(id)

	s.logger.Info("Объект удалён", slog.String("location_id", id))
	return nil
}

// positiveInt проверяет, что v — целое число больше нуля.
func positiveInt(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v <= 0 || v > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}
