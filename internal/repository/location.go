package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/geoattend/internal/domain/model"
)

// LocationRepository — интерфейс CRUD для таблицы locations.
type LocationRepository interface {
	// Create добавляет объект. ErrConflict — имя уже занято.
	Create(ctx context.Context, loc *model.Location) error
	// GetByID возвращает объект по ID.
	GetByID(ctx context.Context, id string) (*model.Location, error)
	// List возвращает все объекты, новые первыми.
	List(ctx context.Context) ([]*model.Location, error)
	// ListGrantedActive возвращает активные объекты, назначенные пользователю, по имени.
	ListGrantedActive(ctx context.Context, userID string) ([]*model.Location, error)
	// CountExisting возвращает, сколько из переданных ID существует.
	CountExisting(ctx context.Context, ids []string) (int, error)
	// Update сохраняет все изменяемые поля объекта.
	Update(ctx context.Context, loc *model.Location) error
	// Delete удаляет объект. ErrConflict — на объект ссылаются отметки.
	Delete(ctx context.Context, id string) error
}

// locationRepo — реализация LocationRepository.
type locationRepo struct {
	db DBTX
}

// NewLocationRepository создаёт репозиторий объектов.
func NewLocationRepository(db DBTX) LocationRepository {
	return &locationRepo{db: db}
}

const locationColumns = `id, name, latitude, longitude, radius, is_active, created_at, updated_at`

func scanLocation(row pgx.Row) (*model.Location, error) {
	l := &model.Location{}
	err := row.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Radius, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *locationRepo) Create(ctx context.Context, loc *model.Location) error {
	query := `
		INSERT INTO locations (id, name, latitude, longitude, radius, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.Radius, loc.IsActive,
	).Scan(&loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания объекта: %w", err)
	}
	return nil
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations WHERE id = $1`, locationColumns)
	l, err := scanLocation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения объекта: %w", err)
	}
	return l, nil
}

func (r *locationRepo) List(ctx context.Context) ([]*model.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations ORDER BY created_at DESC, id`, locationColumns)
	return r.list(ctx, query)
}

func (r *locationRepo) ListGrantedActive(ctx context.Context, userID string) ([]*model.Location, error) {
	query := `
		SELECT l.id, l.name, l.latitude, l.longitude, l.radius, l.is_active, l.created_at, l.updated_at
		FROM locations l
		JOIN user_locations ul ON ul.location_id = l.id
		WHERE ul.user_id = $1 AND l.is_active
		ORDER BY l.name`
	return r.list(ctx, query, userID)
}

func (r *locationRepo) list(ctx context.Context, query string, args ...any) ([]*model.Location, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка объектов: %w", err)
	}
	locs, err := collectRows(rows, scanLocation)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения объектов: %w", err)
	}
	return locs, nil
}

func (r *locationRepo) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM locations WHERE id::text = ANY($1)`, ids).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка проверки объектов: %w", err)
	}
	return n, nil
}

func (r *locationRepo) Update(ctx context.Context, loc *model.Location) error {
	query := `
		UPDATE locations SET
			name = $2, latitude = $3, longitude = $4, radius = $5, is_active = $6,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.Radius, loc.IsActive,
	).Scan(&loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка изменения объекта: %w", err)
	}
	return nil
}

func (r *locationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка удаления объекта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
