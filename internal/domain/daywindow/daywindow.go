// Пакет daywindow — границы гражданского дня посещаемости.
//
// День определяется в одном фиксированном смещении от UTC (например, +07:00),
// независимо от часового пояса хоста и клиента. Переходы на летнее время
// не поддерживаются: смещение постоянно.
package daywindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayLayout — формат ключа гражданского дня.
const DayLayout = "2006-01-02"

// Window — границы одного гражданского дня.
// Start — 00:00:00.000, End — 23:59:59.999 того же дня.
type Window struct {
	Start time.Time
	End   time.Time
	// Day — ключ дня в формате YYYY-MM-DD
	Day string
}

// Contains проверяет, попадает ли момент в окно (границы включительно).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolver вычисляет окна дней в фиксированном смещении.
type Resolver struct {
	loc *time.Location
}

// NewResolver создаёт Resolver для смещения в формате "+07:00", "-03:30" или "Z".
func NewResolver(offset string) (*Resolver, error) {
	seconds, err := ParseOffset(offset)
	if err != nil {
		return nil, err
	}
	return &Resolver{loc: time.FixedZone("UTC"+normalizeOffset(offset), seconds)}, nil
}

// NewResolverFromLocation создаёт Resolver для готового *time.Location.
func NewResolverFromLocation(loc *time.Location) *Resolver {
	return &Resolver{loc: loc}
}

// Location возвращает часовой пояс, в котором считаются дни.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Window возвращает окно гражданского дня, которому принадлежит instant.
func (r *Resolver) Window(instant time.Time) Window {
	local := instant.In(r.loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return Window{
		Start: start,
		End:   end,
		Day:   start.Format(DayLayout),
	}
}

// DayKey возвращает ключ дня YYYY-MM-DD для instant.
func (r *Resolver) DayKey(instant time.Time) string {
	return instant.In(r.loc).Format(DayLayout)
}

// ParseOffset разбирает смещение "+HH:MM" / "-HH:MM" / "Z" в секунды.
func ParseOffset(offset string) (int, error) {
	s := strings.TrimSpace(offset)
	if s == "Z" || s == "+00:00" || s == "-00:00" {
		return 0, nil
	}
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, fmt.Errorf("некорректное смещение %q, ожидается формат +HH:MM", offset)
	}

	hours, err := strconv.Atoi(s[1:3])
	if err != nil || hours > 14 {
		return 0, fmt.Errorf("некорректные часы в смещении %q", offset)
	}
	minutes, err := strconv.Atoi(s[4:6])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("некорректные минуты в смещении %q", offset)
	}

	seconds := hours*3600 + minutes*60
	if s[0] == '-' {
		seconds = -seconds
	}
	return seconds, nil
}

func normalizeOffset(offset string) string {
	s := strings.TrimSpace(offset)
	if s == "Z" {
		return "+00:00"
	}
	return s
}
