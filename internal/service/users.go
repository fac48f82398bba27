// users.go — регистрация, вход, профиль и управление пользователями.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/geoattend/internal/auth"
	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/domain/rbac"
	"github.com/bigkaa/geoattend/internal/repository"
)

// TxFunc выполняет fn в одной транзакции с репозиториями, привязанными к ней.
type TxFunc func(ctx context.Context, fn func(users repository.UserRepository, grants repository.GrantRepository) error) error

// NewTxFunc строит TxFunc поверх транзакций PostgreSQL.
func NewTxFunc(runner *repository.TxRunner) TxFunc {
	return func(ctx context.Context, fn func(repository.UserRepository, repository.GrantRepository) error) error {
		return runner.RunInTx(ctx, func(tx repository.DBTX) error {
			return fn(repository.NewUserRepository(tx), repository.NewGrantRepository(tx))
		})
	}
}

// RegisterInput — данные самостоятельной регистрации.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// CreateUserInput — создание пользователя администратором.
// Пустая роль — USER.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UpdateUserInput — изменение пользователя администратором.
// LocationIDs != nil — полная замена набора назначений.
type UpdateUserInput struct {
	Role        *string
	LocationIDs []string
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	User       *model.User
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

// Profile — профиль пользователя с количеством назначений.
type Profile struct {
	User                  *model.User
	AssignedLocationCount int
}

// UserWithGrants — пользователь и ID назначенных объектов.
type UserWithGrants struct {
	User        *model.User
	LocationIDs []string
}

// UserService — пользователи, учётные данные и назначения.
type UserService struct {
	users     repository.UserRepository
	grants    repository.GrantRepository
	locations repository.LocationRepository
	inTx      TxFunc
	sessions  *auth.Authority
	logger    *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	users repository.UserRepository,
	grants repository.GrantRepository,
	locations repository.LocationRepository,
	inTx TxFunc,
	sessions *auth.Authority,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		grants:    grants,
		locations: locations,
		inTx:      inTx,
		sessions:  sessions,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// Register создаёт пользователя с ролью USER.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.create(ctx, in.Name, in.Email, in.Password, rbac.RoleUser)
}

// Create создаёт пользователя с указанной ролью (администратор).
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	role := in.Role
	if role == "" {
		role = rbac.RoleUser
	}
	if !rbac.IsValidRole(role) {
		return nil, validationError("role must be ADMIN or USER.")
	}
	return s.create(ctx, in.Name, in.Email, in.Password, role)
}

func (s *UserService) create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if name == "" || email == "" || password == "" {
		return nil, validationError("Name, email, and password are required.")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, validationError("Password must be at least 8 characters.")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ConflictError{Message: "Email already exists."}
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь создан",
		slog.String("user_id", u.ID),
		slog.String("role", u.Role),
	)
	return u, nil
}

// Login проверяет учётные данные и выпускает сессию.
// Неизвестный email и неверный пароль неразличимы: ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password are required.")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(auth.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Вход выполнен", slog.String("user_id", u.ID))
	return &LoginResult{
		User:       u,
		Token:      token,
		ExpiresAt:  expiresAt,
		RedirectTo: rbac.HomePath(u.Role),
	}, nil
}

// Me возвращает профиль пользователя.
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.grants.ListLocationIDs(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}
	return &Profile{User: u, AssignedLocationCount: len(ids)}, nil
}

// UpdateProfile меняет имя и/или пароль пользователя.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, password *string) error {
	var newName, newHash *string

	if name != nil {
		if n := strings.TrimSpace(*name); n != "" {
			newName = &n
		}
	}
	if password != nil {
		if p := strings.TrimSpace(*password); p != "" {
			if len(p) < auth.MinPasswordLength {
				return validationError("Password must be at least 8 characters.")
			}
			hash, err := auth.HashPassword(p)
			if err != nil {
				return err
			}
			newHash = &hash
		}
	}
	if newName == nil && newHash == nil {
		return validationError("At least name or password is required.")
	}

	if _, err := uuid.Parse(userID); err != nil {
		return errUserNotFound
	}
	if err := s.users.UpdateProfile(ctx, userID, newName, newHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errUserNotFound
		}
		return fmt.Errorf("изменение профиля: %w", err)
	}

	s.logger.Info("Профиль изменён",
		slog.String("user_id", userID),
		slog.Bool("password_changed", newHash != nil),
	)
	return nil
}

// List возвращает всех пользователей с назначениями, новые первыми.
func (s *UserService) List(ctx context.Context) ([]UserWithGrants, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	grants, err := s.grants.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение назначений: %w", err)
	}

	result := make([]UserWithGrants, 0, len(users))
	for _, u := range users {
		ids := grants[u.ID]
		if ids == nil {
			ids = []string{}
		}
		result = append(result, UserWithGrants{User: u, LocationIDs: ids})
	}
	return result, nil
}

// Update меняет роль и/или заменяет набор назначений пользователя
// в одной транзакции. Все назначаемые объекты должны существовать.
func (s *UserService) Update(ctx context.Context, userID string, in UpdateUserInput) (*UserWithGrants, error) {
	if in.Role == nil && in.LocationIDs == nil {
		return nil, validationError("locationIds array is required.")
	}
	if in.Role != nil && !rbac.IsValidRole(*in.Role) {
		return nil, validationError("role must be ADMIN or USER.")
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, errUserNotFound
	}

	var ids []string
	if in.LocationIDs != nil {
		ids = distinctNonEmpty(in.LocationIDs)
		if len(ids) > 0 {
			n, err := s.locations.CountExisting(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("проверка объектов: %w", err)
			}
			if n != len(ids) {
				return nil, validationError("Some locations are invalid.")
			}
		}
	}

	var result *UserWithGrants
	err := s.inTx(ctx, func(users repository.UserRepository, grants repository.GrantRepository) error {
		if in.Role != nil {
			if err := users.UpdateRole(ctx, userID, *in.Role); err != nil {
				return err
			}
		}

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if in.LocationIDs != nil {
			if err := grants.Replace(ctx, userID, ids); err != nil {
				return err
			}
		}

		current, err := grants.ListLocationIDs(ctx, userID)
		if err != nil {
			return err
		}
		if current == nil {
			current = []string{}
		}
		result = &UserWithGrants{User: u, LocationIDs: current}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, errUserNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, validationError("Some locations are invalid.")
		}
		return nil, fmt.Errorf("изменение пользователя: %w", err)
	}

	s.logger.Info("Пользователь изменён",
		slog.String("user_id", userID),
		slog.String("role", result.User.Role),
		slog.Int("locations", len(result.LocationIDs)),
	)
	return result, nil
}

// EnsureBootstrapAdmin создаёт администратора, если его нет,
// или повышает роль существующего пользователя до ADMIN. Пароль существующего
// пользователя не меняется.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error {
	email = normalizeEmail(email)

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == rbac.RoleAdmin {
			s.logger.Debug("Начальный администратор уже существует", slog.String("user_id", u.ID))
			return nil
		}
		if err := s.users.UpdateRole(ctx, u.ID, rbac.RoleAdmin); err != nil {
			return fmt.Errorf("повышение роли начального администратора: %w", err)
		}
		s.logger.Info("Роль начального администратора повышена до ADMIN", slog.String("user_id", u.ID))
		return nil
	case errors.Is(err, repository.ErrNotFound):
		created, err := s.create(ctx, name, email, password, rbac.RoleAdmin)
		if err != nil {
			return fmt.Errorf("создание начального администратора: %w", err)
		}
		s.logger.Info("Начальный администратор создан", slog.String("user_id", created.ID))
		return nil
	default:
		return fmt.Errorf("поиск начального администратора: %w", err)
	}
}

func (s *UserService) getUser(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errUserNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// distinctNonEmpty убирает пустые строки и повторы, сохраняя порядок.
func distinctNonEmpty(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
