package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Tipos de evento publicados después de cada commit
const (
	EventTransactionRecorded = "InventoryTransactionRecorded"
	EventTransferCompleted   = "TransferCompleted"
	EventTransferCancelled   = "TransferCancelled"
)

// TransactionEvent sobre que viaja por Kafka
type TransactionEvent struct {
	EventID   string                       `json:"event_id"`
	EventType string                       `json:"event_type"`
	Payload   *models.InventoryTransaction `json:"payload"`
	Timestamp time.Time                    `json:"timestamp"`
}

// NewEvent arma un evento con id nuevo
func NewEvent(eventType string, tx *models.InventoryTransaction) TransactionEvent {
	return TransactionEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   tx,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher publica eventos de inventario. Los errores no revierten el comando.
type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
	Close() error
}

// KafkaPublisher publica en un topic usando el código de transacción como key
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher crea el writer asíncrono; no abre conexiones hasta el
// primer mensaje. Publish solo encola y los fallos de entrega se registran.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		logger: logger.With(zap.String("component", "kafka_publisher")),
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Async:        true,
		Completion:   p.delivered,
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event TransactionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Payload.TransactionCode),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.EventType, err)
	}

	p.logger.Debug("Event queued",
		zap.String("event_type", event.EventType),
		zap.String("transaction_code", event.Payload.TransactionCode))
	return nil
}

// delivered callback del writer al terminar cada lote
func (p *KafkaPublisher) delivered(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		p.logger.Warn("Failed to deliver event",
			zap.String("transaction_code", string(msg.Key)),
			zap.String("event_type", eventTypeOf(msg)),
			zap.Error(err))
	}
}

func eventTypeOf(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher descarta eventos; se usa cuando no hay brokers configurados
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransactionEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// RecordingPublisher guarda los eventos en memoria
type RecordingPublisher struct {
	mu     sync.Mutex
	events []TransactionEvent
}

func (r *RecordingPublisher) Publish(_ context.Context, event TransactionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events copia de lo publicado hasta ahora
func (r *RecordingPublisher) Events() []TransactionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TransactionEvent(nil), r.events...)
}

func (r *RecordingPublisher) Close() error { return nil }
