// Пакет model — доменные модели geoattend.
package model

import "time"

// User — учётная запись пользователя.
// Хранится в таблице users, не удаляется.
type User struct {
	// ID — UUID пользователя
	ID string
	// Email — адрес электронной почты (в нижнем регистре, уникален)
	Email string
	// Name — отображаемое имя
	Name string
	// Role — роль (ADMIN, USER)
	Role string
	// PasswordHash — bcrypt-хеш пароля
	PasswordHash string
	// CreatedAt — время регистрации
	CreatedAt time.Time
	// UpdatedAt — время последнего изменения
	UpdatedAt time.Time
}

// Location — объект (площадка) с геозоной.
type Location struct {
	// ID — UUID объекта
	ID string
	// Name — уникальное название
	Name string
	// Latitude — широта центра геозоны
	Latitude float64
	// Longitude — долгота центра геозоны
	Longitude float64
	// Radius — радиус геозоны в метрах, всегда > 0
	Radius int
	// IsActive — принимает ли объект отметки
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocationGrant — доступ пользователя к объекту.
type LocationGrant struct {
	UserID     string
	LocationID string
	CreatedAt  time.Time
}

// AttendanceRecord — отметка посещаемости. После вставки не изменяется.
type AttendanceRecord struct {
	// ID — UUID отметки
	ID string
	// UserID — кто отметился
	UserID string
	// LocationID — на каком объекте
	LocationID string
	// Type — тип события (MORNING_IN, LUNCH_OUT, AFTERNOON_IN, EVENING_OUT)
	Type string
	// Latitude, Longitude — координаты, переданные клиентом
	Latitude  float64
	Longitude float64
	// Distance — расстояние до центра геозоны в метрах
	Distance float64
	// FaceDetected — признак наличия лица в кадре
	FaceDetected bool
	// AttendanceDay — гражданская дата отметки (YYYY-MM-DD в часовом поясе площадки)
	AttendanceDay string
	// CreatedAt — время создания
	CreatedAt time.Time
}

// SiteAttendanceEntry — отметка на объекте вместе с данными пользователя.
// Используется в истории объекта для администратора.
type SiteAttendanceEntry struct {
	Record    AttendanceRecord
	UserName  string
	UserEmail string
}
