package daywindow

import (
	"testing"
	"time"
)

func mustResolver(t *testing.T, offset string) *Resolver {
	t.Helper()
	r, err := NewResolver(offset)
	if err != nil {
		t.Fatalf("NewResolver(%q): %v", offset, err)
	}
	return r
}

// TestWindow_Bounds проверяет границы 00:00:00.000 — 23:59:59.999 в смещении +07:00.
func TestWindow_Bounds(t *testing.T) {
	r := mustResolver(t, "+07:00")

	// 2026-03-10 20:00 UTC — это уже 2026-03-11 03:00 по +07:00
	w := r.Window(time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC))

	if w.Day != "2026-03-11" {
		t.Errorf("Day = %q, хотели 2026-03-11", w.Day)
	}

	wantStart := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, хотели %v", w.Start.UTC(), wantStart)
	}

	wantEnd := time.Date(2026, 3, 11, 16, 59, 59, 999_000_000, time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, хотели %v", w.End.UTC(), wantEnd)
	}
}

// TestWindow_IndependentOfInputZone проверяет, что результат не зависит
// от часового пояса входного момента.
func TestWindow_IndependentOfInputZone(t *testing.T) {
	r := mustResolver(t, "+07:00")
	instant := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)

	zones := []*time.Location{
		time.UTC,
		time.FixedZone("минус пять", -5*3600),
		time.FixedZone("плюс девять", 9*3600),
	}

	want := r.Window(instant)
	for _, z := range zones {
		got := r.Window(instant.In(z))
		if !got.Start.Equal(want.Start) || !got.End.Equal(want.End) || got.Day != want.Day {
			t.Errorf("зона %s: окно %+v, хотели %+v", z, got, want)
		}
	}
}

// TestWindow_AdjacentAcrossMidnight проверяет, что окна до и после полуночи
// не пересекаются и примыкают друг к другу.
func TestWindow_AdjacentAcrossMidnight(t *testing.T) {
	r := mustResolver(t, "+07:00")
	loc := r.Location()

	before := time.Date(2026, 5, 20, 23, 59, 0, 0, loc)
	after := time.Date(2026, 5, 21, 0, 1, 0, 0, loc)

	w1 := r.Window(before)
	w2 := r.Window(after)

	if w1.Day == w2.Day {
		t.Fatalf("ожидались разные дни, оба %q", w1.Day)
	}
	if !w1.End.Before(w2.Start) {
		t.Errorf("окна пересекаются: End1=%v, Start2=%v", w1.End, w2.Start)
	}
	if !w1.End.Add(time.Millisecond).Equal(w2.Start) {
		t.Errorf("окна не примыкают: End1+1ms=%v, Start2=%v", w1.End.Add(time.Millisecond), w2.Start)
	}
	if !w1.Contains(before) || w1.Contains(after) {
		t.Error("before должен попадать только в первое окно")
	}
	if !w2.Contains(after) || w2.Contains(before) {
		t.Error("after должен попадать только во второе окно")
	}
}

func TestDayKey(t *testing.T) {
	r := mustResolver(t, "+07:00")
	instant := time.Date(2026, 12, 31, 17, 0, 0, 0, time.UTC)
	if got := r.DayKey(instant); got != "2027-01-01" {
		t.Errorf("DayKey = %q, хотели 2027-01-01", got)
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"+07:00", 7 * 3600, false},
		{"-03:30", -(3*3600 + 30*60), false},
		{"Z", 0, false},
		{"+00:00", 0, false},
		{"07:00", 0, true},
		{"+7:00", 0, true},
		{"+15:00", 0, true},
		{"+07:60", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseOffset(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseOffset(%q): ожидалась ошибка", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOffset(%q): неожиданная ошибка: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOffset(%q) = %d, хотели %d", tt.in, got, tt.want)
		}
	}
}
