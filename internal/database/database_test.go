package database

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bigkaa/geoattend/internal/config"
)

// setupTestDB запускает PostgreSQL в Docker-контейнере через testcontainers.
func setupTestDB(t *testing.T) *config.Config {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("geoattend_test"),
		postgres.WithUsername("geoattend"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Не удалось запустить PostgreSQL контейнер: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Не удалось получить host контейнера: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Не удалось получить port контейнера: %v", err)
	}

	t.Setenv("GA_DB_HOST", host)
	t.Setenv("GA_DB_PORT", port.Port())
	t.Setenv("GA_DB_NAME", "geoattend_test")
	t.Setenv("GA_DB_USER", "geoattend")
	t.Setenv("GA_DB_PASSWORD", "test-password")
	t.Setenv("GA_DB_SSL_MODE", "disable")
	t.Setenv("GA_SESSION_SECRET", "test-secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// TestMigrate проверяет применение миграций, повторный запуск
// и ограничение уникальности отметок.
func TestMigrate(t *testing.T) {
	cfg := setupTestDB(t)
	logger := testLogger()

	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}
	// Повторное применение — без ошибки (ErrNoChange)
	if err := Migrate(cfg, logger); err != nil {
		t.Fatalf("Повторный Migrate() вернул ошибку: %v", err)
	}

	ctx := context.Background()
	pool, err := Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	for _, table := range []string{"users", "locations", "user_locations", "attendance_records"} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("Ошибка проверки таблицы %s: %v", table, err)
		}
		if !exists {
			t.Errorf("Таблица %s не создана", table)
		}
	}

	// Вторая отметка того же типа за тот же день отклоняется базой
	userID, siteID := uuid.NewString(), uuid.NewString()
	if _, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, password_hash) VALUES ($1, 'u@example.com', 'U', 'USER', 'x')`,
		userID); err != nil {
		t.Fatalf("вставка пользователя: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO locations (id, name, latitude, longitude, radius) VALUES ($1, 'Office', 13.7, 100.5, 200)`,
		siteID); err != nil {
		t.Fatalf("вставка объекта: %v", err)
	}

	insert := `INSERT INTO attendance_records
		(id, user_id, location_id, type, latitude, longitude, distance, face_detected, attendance_day)
		VALUES ($1, $2, $3, 'MORNING_IN', 13.7, 100.5, 0, TRUE, '2026-01-05')`
	if _, err := pool.Exec(ctx, insert, uuid.NewString(), userID, siteID); err != nil {
		t.Fatalf("первая отметка: %v", err)
	}
	if _, err := pool.Exec(ctx, insert, uuid.NewString(), userID, siteID); err == nil {
		t.Error("повторная отметка MORNING_IN за день должна нарушать уникальность")
	}

	// Нулевой радиус запрещён
	if _, err := pool.Exec(ctx,
		`INSERT INTO locations (id, name, latitude, longitude, radius) VALUES ($1, 'Zero', 0, 0, 0)`,
		uuid.NewString()); err == nil {
		t.Error("объект с radius = 0 должен отклоняться")
	}
}

// TestReadinessChecker проверяет ReadinessChecker.
func TestReadinessChecker(t *testing.T) {
	cfg := setupTestDB(t)
	ctx := context.Background()

	pool, err := Connect(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	status, msg := NewReadinessChecker(pool).CheckReady()
	if status != "ok" {
		t.Errorf("CheckReady() status = %q, message = %q; ожидали status = %q", status, msg, "ok")
	}
}
