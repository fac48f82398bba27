package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/geoattend/internal/domain/model"
)

// AttendanceRepository — отметки посещаемости (таблица attendance_records).
// Отметки только добавляются, изменения и удаления нет.
type AttendanceRepository interface {
	// Create вставляет отметку. ErrConflict — тип уже записан за этот день
	// (ограничение uq_attendance_user_day_type).
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	// ListForDay возвращает отметки пользователя в окне [start, end]
	// по возрастанию времени создания.
	ListForDay(ctx context.Context, userID string, start, end time.Time) ([]model.AttendanceRecord, error)
	// ListByUser возвращает отметки пользователя, новые первыми.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.AttendanceRecord, error)
	// ListByLocation возвращает отметки на объекте с данными пользователей, новые первыми.
	ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]model.SiteAttendanceEntry, error)
}

// attendanceRepo — реализация AttendanceRepository.
type attendanceRepo struct {
	db DBTX
}

// NewAttendanceRepository создаёт репозиторий отметок.
func NewAttendanceRepository(db DBTX) AttendanceRepository {
	return &attendanceRepo{db: db}
}

const attendanceColumns = `a.id, a.user_id, a.location_id, a.type, a.latitude, a.longitude,
	a.distance, a.face_detected, to_char(a.attendance_day, 'YYYY-MM-DD'), a.created_at`

func scanAttendance(row pgx.Row, extra ...any) (model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	dest := []any{
		&rec.ID, &rec.UserID, &rec.LocationID, &rec.Type, &rec.Latitude, &rec.Longitude,
		&rec.Distance, &rec.FaceDetected, &rec.AttendanceDay, &rec.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return rec, err
}

func (r *attendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records
			(id, user_id, location_id, type, latitude, longitude, distance, face_detected, attendance_day, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::date, $10)`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.UserID, rec.LocationID, rec.Type, rec.Latitude, rec.Longitude,
		rec.Distance, rec.FaceDetected, rec.AttendanceDay, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания отметки: %w", err)
	}
	return nil
}

func (r *attendanceRepo) ListForDay(ctx context.Context, userID string, start, end time.Time) ([]model.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_records a
		WHERE a.user_id = $1 AND a.created_at BETWEEN $2 AND $3
		ORDER BY a.created_at, a.id`, attendanceColumns)
	return r.list(ctx, query, userID, start, end)
}

func (r *attendanceRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM attendance_records a
		WHERE a.user_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`, attendanceColumns)
	return r.list(ctx, query, userID, limit, offset)
}

func (r *attendanceRepo) list(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения отметок: %w", err)
	}
	recs, err := collectRows(rows, func(row pgx.Row) (model.AttendanceRecord, error) {
		return scanAttendance(row)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения отметок: %w", err)
	}
	return recs, nil
}

func (r *attendanceRepo) ListByLocation(ctx context.Context, locationID string, limit, offset int) ([]model.SiteAttendanceEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email
		FROM attendance_records a
		JOIN users u ON u.id = a.user_id
		WHERE a.location_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`, attendanceColumns)

	rows, err := r.db.Query(ctx, query, locationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории объекта: %w", err)
	}
	entries, err := collectRows(rows, func(row pgx.Row) (model.SiteAttendanceEntry, error) {
		var e model.SiteAttendanceEntry
		rec, err := scanAttendance(row, &e.UserName, &e.UserEmail)
		e.Record = rec
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории объекта: %w", err)
	}
	return entries, nil
}
