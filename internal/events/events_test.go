package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sample-logistics/internal/config"
)

type transferPayload struct {
	SampleID int64 `json:"sample_id"`
	Quantity int   `json:"quantity"`
}

func TestNew_Envelope(t *testing.T) {
	ev, err := New(TypeSampleTransferred, "sample/9", transferPayload{SampleID: 9, Quantity: 3})
	require.NoError(t, err)
	assert.Len(t, ev.ID, 36)
	assert.Equal(t, "sample/9", ev.Subject)
	assert.JSONEq(t, `{"sample_id":9,"quantity":3}`, string(ev.Data))

	other, err := New(TypeSampleTransferred, "sample/9", nil)
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestKafkaPublisher_SubjectPinsPartition(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "sample-logistics.events")
	defer func() { _ = p.Close() }()

	partitions := []int{0, 1, 2, 3}
	chosen := map[int]bool{}
	for i := 0; i < 8; i++ {
		chosen[p.w.Balancer.Balance(kafka.Message{Key: []byte("dispatch/7")}, partitions...)] = true
		p.w.Balancer.Balance(kafka.Message{Key: []byte(fmt.Sprintf("dispatch/%d", 100+i)), Value: make([]byte, 512)}, partitions...)
	}
	assert.Len(t, chosen, 1, "events of one dispatch must share a partition")
}

func TestKafkaMessage(t *testing.T) {
	ev, err := New(TypeDispatchCreated, "dispatch/4", map[string]int{"lines": 2})
	require.NoError(t, err)

	msg, err := kafkaMessage(ev)
	require.NoError(t, err)
	assert.Equal(t, []byte("dispatch/4"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event-type", msg.Headers[1].Key)
	assert.Equal(t, []byte(TypeDispatchCreated), msg.Headers[1].Value)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, ev.Type, decoded.Type)
}

func TestAMQPPublishing(t *testing.T) {
	ev, err := New(TypeDispatchReceived, "dispatch/4", nil)
	require.NoError(t, err)

	pub, err := amqpPublishing(ev)
	require.NoError(t, err)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, ev.ID, pub.MessageId)
	assert.Equal(t, TypeDispatchReceived, pub.Type)
}

func TestMemoryPublisher(t *testing.T) {
	m := &MemoryPublisher{}
	ev, _ := New(TypeDispatchUpdated, "dispatch/1", nil)
	require.NoError(t, m.Publish(context.Background(), ev))
	assert.Len(t, m.Events(), 1)

	m.Err = errors.New("broker down")
	assert.Error(t, m.Publish(context.Background(), ev))
	assert.Len(t, m.Events(), 1)
}

func TestNewPublisher_None(t *testing.T) {
	p, err := NewPublisher(&config.Config{EventsBackend: config.EventsNone})
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)

	p, err = NewPublisher(&config.Config{EventsBackend: config.EventsKafka, KafkaBrokers: "localhost:9092", KafkaTopic: "t"})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())

	_, err = NewPublisher(&config.Config{EventsBackend: "sqs"})
	assert.Error(t, err)
}
