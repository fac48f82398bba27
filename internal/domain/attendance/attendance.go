// Пакет attendance — дневной цикл отметок посещаемости.
//
// Цикл на одного пользователя и один гражданский день:
//
//	MORNING_IN → LUNCH_OUT → AFTERNOON_IN → EVENING_OUT
//
// Состояние — количество уже принятых отметок (0..4), 4 — цикл завершён.
// Пакет только принимает решение (принять / отклонить), ничего не хранит.
// Уникальность типа за день при гонках гарантирует ограничение в БД.
package attendance

import (
	"fmt"
	"time"

	"github.com/bigkaa/geoattend/internal/domain/model"
)

// Type — тип отметки.
type Type string

const (
	MorningIn   Type = "MORNING_IN"
	LunchOut    Type = "LUNCH_OUT"
	AfternoonIn Type = "AFTERNOON_IN"
	EveningOut  Type = "EVENING_OUT"
)

// Order — канонический порядок отметок в течение дня.
var Order = [...]Type{MorningIn, LunchOut, AfternoonIn, EveningOut}

// CycleLength — количество отметок в полном цикле.
const CycleLength = len(Order)

var labels = map[Type]string{
	MorningIn:   "Morning In",
	LunchOut:    "Lunch Out",
	AfternoonIn: "Afternoon In",
	EveningOut:  "Evening Out",
}

// Label возвращает человекочитаемое название типа.
// Для неизвестного типа — сама строка типа.
func Label(t Type) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}

// IsValidType проверяет принадлежность строки к перечислению типов.
func IsValidType(s string) bool {
	_, ok := labels[Type(s)]
	return ok
}

// Коды отказа.
const (
	CodeNoFace        = "NO_FACE"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidType   = "INVALID_TYPE"
	CodeDuplicateType = "DUPLICATE_TYPE"
	CodeCycleComplete = "CYCLE_COMPLETE"
	CodeOutOfSequence = "OUT_OF_SEQUENCE"
)

// RejectKind — категория отказа.
type RejectKind string

const (
	// KindValidation — некорректный ввод (нет лица, неизвестный тип).
	KindValidation RejectKind = "validation"
	// KindGeofence — точка вне геозоны.
	KindGeofence RejectKind = "geofence"
	// KindSequence — нарушение дневного цикла.
	KindSequence RejectKind = "sequence"
)

// Rejection — отказ в приёме отметки.
type Rejection struct {
	Code    string
	Message string
	Kind    RejectKind
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// DuplicateRejection — отказ для повторного типа за день.
// Используется и при конфликте уникальности в БД.
func DuplicateRejection(t Type) *Rejection {
	return &Rejection{
		Code:    CodeDuplicateType,
		Message: fmt.Sprintf("%s has already been recorded today.", Label(t)),
		Kind:    KindSequence,
	}
}

// Proposal — предлагаемая отметка.
type Proposal struct {
	UserID     string
	LocationID string
	// Type — тип в сыром виде, как пришёл от клиента
	Type      string
	Latitude  float64
	Longitude float64
	// Distance — вычисленное расстояние до центра геозоны, м
	Distance float64
	// AllowedRadius — радиус геозоны, м
	AllowedRadius float64
	FacePresent   bool
	// At — момент отметки
	At time.Time
}

// Decide принимает решение по отметке.
// existing — отметки пользователя за текущий день, по возрастанию времени создания.
// Возвращает новую запись (без ID и AttendanceDay, их задаёт вызывающий код)
// или *Rejection.
//
// Порядок проверок: лицо, расстояние (граница включительно), тип,
// завершённость цикла, повтор, ожидаемый следующий тип.
func Decide(existing []model.AttendanceRecord, p Proposal) (*model.AttendanceRecord, error) {
	if !p.FacePresent {
		return nil, &Rejection{
			Code:    CodeNoFace,
			Message: "No face detected. Check-in blocked.",
			Kind:    KindValidation,
		}
	}

	if !(p.Distance <= p.AllowedRadius) {
		return nil, &Rejection{
			Code: CodeOutOfRange,
			Message: fmt.Sprintf("Outside allowed radius. Distance: %.2fm, allowed: %.2fm.",
				p.Distance, p.AllowedRadius),
			Kind: KindGeofence,
		}
	}

	if !IsValidType(p.Type) {
		return nil, &Rejection{
			Code:    CodeInvalidType,
			Message: fmt.Sprintf("Invalid attendance type %q.", p.Type),
			Kind:    KindValidation,
		}
	}
	proposed := Type(p.Type)

	expected, ok := NextExpected(existing)
	if !ok {
		return nil, &Rejection{
			Code:    CodeCycleComplete,
			Message: "All attendance events for today have already been recorded.",
			Kind:    KindSequence,
		}
	}

	for _, rec := range existing {
		if Type(rec.Type) == proposed {
			return nil, DuplicateRejection(proposed)
		}
	}

	if proposed != expected {
		return nil, &Rejection{
			Code: CodeOutOfSequence,
			Message: fmt.Sprintf("Out of sequence. Next expected: %s (%s).",
				expected, Label(expected)),
			Kind: KindSequence,
		}
	}

	return &model.AttendanceRecord{
		UserID:       p.UserID,
		LocationID:   p.LocationID,
		Type:         string(proposed),
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		Distance:     p.Distance,
		FaceDetected: true,
		CreatedAt:    p.At,
	}, nil
}

// NextExpected возвращает следующий ожидаемый тип для набора отметок дня.
// ok == false, если цикл завершён.
func NextExpected(existing []model.AttendanceRecord) (Type, bool) {
	n := len(existing)
	if n >= CycleLength {
		return "", false
	}
	return Order[n], true
}

// SuccessMessage — сообщение об успешной отметке.
func SuccessMessage(t Type) string {
	return fmt.Sprintf("%s recorded successfully.", Label(t))
}
