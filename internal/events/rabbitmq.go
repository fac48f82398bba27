package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	connectRetries = 5
)

// RabbitPublisher публикует события в topic exchange RabbitMQ.
type RabbitPublisher struct {
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
	mu       sync.Mutex
	closed   bool
	logger   *slog.Logger
}

// NewRabbitPublisher подключается к брокеру с повторными попытками
// и объявляет durable topic exchange.
func NewRabbitPublisher(ctx context.Context, url, exchange string, logger *slog.Logger) (*RabbitPublisher, error) {
	logger = logger.With(slog.String("component", "events"))

	var (
		conn *amqp.Connection
		err  error
	)
	delay := time.Second
	for attempt := 1; attempt <= connectRetries; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("Ошибка подключения к RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", connectRetries),
			slog.String("error", err.Error()),
		)
		if attempt == connectRetries {
			return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", connectRetries, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка открытия канала RabbitMQ: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("ошибка объявления exchange %s: %w", exchange, err)
	}

	logger.Info("Подключение к RabbitMQ установлено", slog.String("exchange", exchange))

	return &RabbitPublisher{
		exchange: exchange,
		conn:     conn,
		ch:       ch,
		logger:   logger,
	}, nil
}

// PublishAttendanceRecorded публикует событие о принятой отметке.
func (p *RabbitPublisher) PublishAttendanceRecorded(ctx context.Context, event AttendanceRecorded) error {
	msg, err := newPublishing(event, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	ch, closed := p.ch, p.closed
	p.mu.Unlock()
	if closed || ch == nil {
		return fmt.Errorf("канал RabbitMQ закрыт")
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	routingKey := event.RoutingKey()
	if err := ch.PublishWithContext(publishCtx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("ошибка публикации %s: %w", routingKey, err)
	}

	p.logger.Debug("Событие опубликовано",
		slog.String("routing_key", routingKey),
		slog.String("record_id", event.RecordID),
	)
	return nil
}

// Close закрывает канал и соединение. Повторный вызов — no-op.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("ошибка закрытия соединения RabbitMQ: %w", err)
		}
	}
	p.logger.Info("Соединение с RabbitMQ закрыто")
	return nil
}

// CheckReady — состояние соединения с брокером. Публикация не обязательна
// для приёма отметок, поэтому потеря соединения даёт "degraded", а не "fail".
func (p *RabbitPublisher) CheckReady() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.conn == nil || p.conn.IsClosed() {
		return "degraded", "соединение с RabbitMQ закрыто"
	}
	return "ok", ""
}

// newPublishing формирует сообщение AMQP: JSON, persistent.
func newPublishing(event AttendanceRecorded, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("ошибка сериализации события: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RecordID,
		Timestamp:    now,
		Type:         "attendance.recorded",
		Body:         body,
	}, nil
}
