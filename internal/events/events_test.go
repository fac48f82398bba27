package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"MORNING_IN", "attendance.recorded.morning_in"},
		{"LUNCH_OUT", "attendance.recorded.lunch_out"},
		{"EVENING_OUT", "attendance.recorded.evening_out"},
	}
	for _, tt := range tests {
		if got := (AttendanceRecorded{Type: tt.typ}).RoutingKey(); got != tt.want {
			t.Errorf("RoutingKey(%s) = %q, хотели %q", tt.typ, got, tt.want)
		}
	}
}

func TestNewPublishing(t *testing.T) {
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	ev := AttendanceRecorded{
		RecordID:      "r-1",
		UserID:        "u-1",
		LocationID:    "l-1",
		Type:          "MORNING_IN",
		AttendanceDay: "2026-03-10",
		Distance:      150,
		RecordedAt:    now,
	}

	msg, err := newPublishing(ev, now)
	if err != nil {
		t.Fatalf("newPublishing: %v", err)
	}
	if msg.ContentType != "application/json" {
		t.Errorf("ContentType = %q", msg.ContentType)
	}
	if msg.DeliveryMode != amqp.Persistent {
		t.Errorf("DeliveryMode = %d, хотели persistent", msg.DeliveryMode)
	}
	if msg.MessageId != "r-1" {
		t.Errorf("MessageId = %q, хотели r-1", msg.MessageId)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("тело не JSON: %v", err)
	}
	if decoded["type"] != "MORNING_IN" || decoded["attendanceDay"] != "2026-03-10" {
		t.Errorf("неожиданное тело: %s", msg.Body)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishAttendanceRecorded(context.Background(), AttendanceRecorded{}); err != nil {
		t.Errorf("Nop.Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}
