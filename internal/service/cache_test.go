package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/repository"
)

func TestSiteCache_GetLoadsOnce(t *testing.T) {
	repo := newFakeLocations(newFakeGrants(),
		&model.Location{ID: testSiteID, Name: "Main Office", Radius: 200, IsActive: true})
	cache := NewSiteCache(repo, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		loc, err := cache.Get(ctx, testSiteID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if loc.Name != "Main Office" {
			t.Errorf("Name = %q", loc.Name)
		}
	}
	if repo.gets != 1 {
		t.Errorf("обращений к репозиторию = %d, хотели 1", repo.gets)
	}

	// изменение копии не затрагивает кэш
	loc, _ := cache.Get(ctx, testSiteID)
	loc.Radius = 1
	if again, _ := cache.Get(ctx, testSiteID); again.Radius != 200 {
		t.Errorf("кэш изменён через возвращённую копию: %d", again.Radius)
	}

	cache.Invalidate(testSiteID)
	if cache.Len() != 0 {
		t.Errorf("Len после Invalidate = %d", cache.Len())
	}
	if _, err := cache.Get(ctx, testSiteID); err != nil {
		t.Fatalf("Get после Invalidate: %v", err)
	}
	if repo.gets != 2 {
		t.Errorf("обращений к репозиторию = %d, хотели 2", repo.gets)
	}
}

func TestSiteCache_NotFoundNotCached(t *testing.T) {
	repo := newFakeLocations(newFakeGrants())
	cache := NewSiteCache(repo, 10, time.Minute)

	if _, err := cache.Get(context.Background(), testMissingSite); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ошибка = %v, ожидается repository.ErrNotFound", err)
	}
	if cache.Len() != 0 {
		t.Errorf("отсутствующий объект закэширован")
	}
}

func TestSiteCache_TTLExpiration(t *testing.T) {
	repo := newFakeLocations(newFakeGrants(),
		&model.Location{ID: testSiteID, Name: "Main Office", Radius: 200, IsActive: true})
	cache := NewSiteCache(repo, 10, 50*time.Millisecond)
	ctx := context.Background()

	if _, err := cache.Get(ctx, testSiteID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, err := cache.Get(ctx, testSiteID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if repo.gets != 2 {
		t.Errorf("обращений к репозиторию = %d, хотели 2 после истечения TTL", repo.gets)
	}
}
