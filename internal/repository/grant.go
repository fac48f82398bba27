package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GrantRepository — назначения пользователей на объекты (таблица user_locations).
type GrantRepository interface {
	// Exists проверяет наличие назначения.
	Exists(ctx context.Context, userID, locationID string) (bool, error)
	// ListLocationIDs возвращает ID объектов, назначенных пользователю.
	ListLocationIDs(ctx context.Context, userID string) ([]string, error)
	// ListAll возвращает назначения всех пользователей: userID → []locationID.
	ListAll(ctx context.Context) (map[string][]string, error)
	// Replace удаляет все назначения пользователя и создаёт переданные.
	// Вызывается внутри транзакции.
	Replace(ctx context.Context, userID string, locationIDs []string) error
}

// grantRepo — реализация GrantRepository.
type grantRepo struct {
	db DBTX
}

// NewGrantRepository создаёт репозиторий назначений.
func NewGrantRepository(db DBTX) GrantRepository {
	return &grantRepo{db: db}
}

func (r *grantRepo) Exists(ctx context.Context, userID, locationID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_locations WHERE user_id = $1 AND location_id = $2)`,
		userID, locationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки назначения: %w", err)
	}
	return exists, nil
}

func (r *grantRepo) ListLocationIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT location_id::text FROM user_locations WHERE user_id = $1 ORDER BY created_at, location_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения назначений: %w", err)
	}
	ids, err := collectRows(rows, func(row pgx.Row) (string, error) {
		var id string
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения назначений: %w", err)
	}
	return ids, nil
}

func (r *grantRepo) ListAll(ctx context.Context) (map[string][]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id::text, location_id::text FROM user_locations ORDER BY created_at, location_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения назначений: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var userID, locationID string
		if err := rows.Scan(&userID, &locationID); err != nil {
			return nil, fmt.Errorf("ошибка чтения назначения: %w", err)
		}
		result[userID] = append(result[userID], locationID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения назначений: %w", err)
	}
	return result, nil
}

func (r *grantRepo) Replace(ctx context.Context, userID string, locationIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_locations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка удаления назначений: %w", err)
	}
	if len(locationIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO user_locations (user_id, location_id)
		SELECT $1, unnest($2::uuid[])`, userID, locationIDs)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка создания назначений: %w", err)
	}
	return nil
}
