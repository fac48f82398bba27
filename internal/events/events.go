// Пакет events — публикация событий посещаемости во внешнюю шину.
// Публикация best-effort: ошибка не отменяет уже сохранённую отметку.
package events

import (
	"context"
	"strings"
	"time"
)

// RoutingKeyPrefix — префикс routing key для принятых отметок.
const RoutingKeyPrefix = "attendance.recorded."

// AttendanceRecorded — событие о принятой отметке.
type AttendanceRecorded struct {
	RecordID      string    `json:"recordId"`
	UserID        string    `json:"userId"`
	LocationID    string    `json:"locationId"`
	Type          string    `json:"type"`
	AttendanceDay string    `json:"attendanceDay"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Distance      float64   `json:"distance"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// RoutingKey — routing key события: attendance.recorded.<type в нижнем регистре>.
func (e AttendanceRecorded) RoutingKey() string {
	return RoutingKeyPrefix + strings.ToLower(e.Type)
}

// Publisher публикует события посещаемости.
type Publisher interface {
	PublishAttendanceRecorded(ctx context.Context, event AttendanceRecorded) error
	Close() error
}

// Nop — публикатор-заглушка, когда брокер не настроен.
type Nop struct{}

// PublishAttendanceRecorded ничего не делает.
func (Nop) PublishAttendanceRecorded(context.Context, AttendanceRecorded) error { return nil }

// Close ничего не делает.
func (Nop) Close() error { return nil }
