package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEventEnvelope(t *testing.T) {
	tx := &models.InventoryTransaction{TransactionCode: "SI-20261019-0001", Type: models.TransactionTypeStockIn}
	event := NewEvent(EventTransactionRecorded, tx)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventTransactionRecorded, event.EventType)

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"transaction_code":"SI-20261019-0001"`)
	assert.Contains(t, string(data), `"event_type":"InventoryTransactionRecorded"`)
}

func TestRecordingPublisher(t *testing.T) {
	var p RecordingPublisher
	tx := &models.InventoryTransaction{TransactionCode: "TR-20261019-0001"}

	require.NoError(t, p.Publish(context.Background(), NewEvent(EventTransferCompleted, tx)))
	require.Len(t, p.Events(), 1)
	assert.Equal(t, EventTransferCompleted, p.Events()[0].EventType)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), NewEvent(EventTransferCancelled, tx)))
}

func TestKafkaPublisherDoesNotBlockCommand(t *testing.T) {
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "inventory.transactions", zap.NewNop())
	assert.True(t, p.writer.Async)
	require.NotNil(t, p.writer.Completion)

	// broker inalcanzable: Publish solo encola
	tx := &models.InventoryTransaction{TransactionCode: "SO-20261019-0001"}
	start := time.Now()
	assert.NoError(t, p.Publish(context.Background(), NewEvent(EventTransactionRecorded, tx)))
	assert.Less(t, time.Since(start), 45*time.Millisecond)
}

func TestKafkaPublisherLogsFailedDelivery(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewKafkaPublisher([]string{"127.0.0.1:1"}, "inventory.transactions", zap.New(core))

	p.delivered([]kafka.Message{{
		Key:     []byte("TR-20261019-0003"),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventTransferCompleted)}},
	}}, errors.New("connection refused"))
	p.delivered([]kafka.Message{{Key: []byte("TR-20261019-0004")}}, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "TR-20261019-0003", fields["transaction_code"])
	assert.Equal(t, EventTransferCompleted, fields["event_type"])
}
