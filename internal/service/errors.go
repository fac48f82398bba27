// Пакет service — бизнес-логика geoattend.
// errors.go — ошибки сервисного слоя.
package service

import (
	"errors"

	"github.com/bigkaa/geoattend/internal/domain/access"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — ресурс уже существует или используется.
	ErrConflict = errors.New("конфликт — ресурс уже существует или используется")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("неверные учётные данные")
)

// ValidationError — некорректный ввод. Message показывается клиенту как есть.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}

// NotFoundError — ресурс не найден, с сообщением для клиента.
// errors.Is(err, ErrNotFound) == true.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// Is сопоставляет ошибку с ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError — конфликт, с сообщением для клиента.
// errors.Is(err, ErrConflict) == true.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is сопоставляет ошибку с ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AccessDeniedError — отказ в доступе к объекту по назначению или активности.
type AccessDeniedError struct {
	Reason access.Reason
}

func (e *AccessDeniedError) Error() string {
	return access.Decision{Reason: e.Reason}.Message()
}

var (
	errLocationNotFound = &NotFoundError{Message: "Location not found."}
	errUserNotFound     = &NotFoundError{Message: "User not found."}
)
