package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/geoattend/internal/domain/model"
	"github.com/bigkaa/geoattend/internal/events"
	"github.com/bigkaa/geoattend/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- пользователи ---

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*model.User
	order []string
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*model.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
		f.order = append(f.order, u.ID)
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.order = append(f.order, u.ID)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*model.User, 0, len(f.order))
	for i := len(f.order) - 1; i >= 0; i-- {
		cp := *f.byID[f.order[i]]
		result = append(result, &cp)
	}
	return result, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, id, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, name, passwordHash *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

// --- объекты ---

type fakeLocations struct {
	mu     sync.Mutex
	byID   map[string]*model.Location
	grants *fakeGrants
	gets   int
	// inUse — ID объектов, на которые ссылаются отметки
	inUse map[string]bool
}

func newFakeLocations(grants *fakeGrants, locs ...*model.Location) *fakeLocations {
	f := &fakeLocations{byID: map[string]*model.Location{}, grants: grants, inUse: map[string]bool{}}
	for _, l := range locs {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeLocations) Create(_ context.Context, loc *model.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.byID {
		if l.Name == loc.Name {
			return repository.ErrConflict
		}
	}
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = loc.CreatedAt
	cp := *loc
	f.byID[loc.ID] = &cp
	return nil
}

func (f *fakeLocations) GetByID(_ context.Context, id string) (*model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	l, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLocations) List(context.Context) ([]*model.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*model.Location, 0, len(f.byID))
	for _, l := range f.byID {
		cp := *l
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeLocations) ListGrantedActive(ctx context.Context, userID string) ([]*model.Location, error) {
	ids, _ := f.grants.ListLocationIDs(ctx, userID)
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*model.Location
	for _, id := range ids {
		if l, ok := f.byID[id]; ok && l.IsActive {
			cp := *l
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeLocations) CountExisting(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := f.byID[id]; ok {
			n++
		}
	}
	return n, nil
}

func (f *fakeLocations) Update(_ context.Context, loc *model.Location) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[loc.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, l := range f.byID {
		if l.ID != loc.ID && l.Name == loc.Name {
			return repository.ErrConflict
		}
	}
	cp := *loc
	f.byID[loc.ID] = &cp
	return nil
}

func (f *fakeLocations) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	if f.inUse[id] {
		return repository.ErrConflict
	}
	delete(f.byID, id)
	return nil
}

// --- назначения ---

type fakeGrants struct {
	mu     sync.Mutex
	byUser map[string][]string
}

func newFakeGrants() *fakeGrants {
	return &fakeGrants{byUser: map[string][]string{}}
}

func (f *fakeGrants) grant(userID string, locationIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[userID] = append(f.byUser[userID], locationIDs...)
}

func (f *fakeGrants) Exists(_ context.Context, userID, locationID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.byUser[userID] {
		if id == locationID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGrants) ListLocationIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.byUser[userID]...), nil
}

func (f *fakeGrants) ListAll(context.Context) (map[string][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string][]string, len(f.byUser))
	for k, v := range f.byUser {
		result[k] = append([]string(nil), v...)
	}
	return result, nil
}

func (f *fakeGrants) Replace(_ context.Context, userID string, locationIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(locationIDs) == 0 {
		delete(f.byUser, userID)
		return nil
	}
	f.byUser[userID] = append([]string(nil), locationIDs...)
	return nil
}

// --- отметки ---

type dayKey struct {
	userID, day, typ string
}

// fakeAttendance хранит отметки и, как БД, запрещает повтор (user, day, type).
type fakeAttendance struct {
	mu      sync.Mutex
	records []model.AttendanceRecord
	unique  map[dayKey]bool
	// afterList вызывается после чтения отметок за день, до возврата
	afterList func()
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{unique: map[dayKey]bool{}}
}

func (f *fakeAttendance) Create(_ context.Context, rec *model.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := dayKey{rec.UserID, rec.AttendanceDay, rec.Type}
	if f.unique[key] {
		return repository.ErrConflict
	}
	f.unique[key] = true
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeAttendance) ListForDay(_ context.Context, userID string, start, end time.Time) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	var result []model.AttendanceRecord
	for _, r := range f.records {
		if r.UserID == userID && !r.CreatedAt.Before(start) && !r.CreatedAt.After(end) {
			result = append(result, r)
		}
	}
	hook := f.afterList
	f.mu.Unlock()

	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if hook != nil {
		hook()
	}
	return result, nil
}

func (f *fakeAttendance) ListByUser(_ context.Context, userID string, limit, offset int) ([]model.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.AttendanceRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			result = append(result, f.records[i])
		}
	}
	return page(result, limit, offset), nil
}

func (f *fakeAttendance) ListByLocation(_ context.Context, locationID string, limit, offset int) ([]model.SiteAttendanceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.SiteAttendanceEntry
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].LocationID == locationID {
			result = append(result, model.SiteAttendanceEntry{Record: f.records[i]})
		}
	}
	return page(result, limit, offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// --- события ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AttendanceRecorded
	err    error
}

func (p *recordingPublisher) PublishAttendanceRecorded(_ context.Context, e events.AttendanceRecorded) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// --- транзакции ---

func fakeTx(users *fakeUsers, grants *fakeGrants) TxFunc {
	return func(_ context.Context, fn func(repository.UserRepository, repository.GrantRepository) error) error {
		return fn(users, grants)
	}
}
