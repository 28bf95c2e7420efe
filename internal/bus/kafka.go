// Package bus provides core.EventBusProducer implementations.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/eventactor/internal/core"
	"github.com/segmentio/kafka-go"
)

// envelope is the bus wire format: TypeCode + BasicInfo + event
// bytes for a committed event, or just TypeCode + payload for a bare
// publish.
type envelope struct {
	TypeCode  string          `json:"type_code"`
	Version   int64           `json:"version,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Kafka is a core.EventBusProducer backed by segmentio/kafka-go: messages
// are keyed by aggregate id with least-bytes balancing and a small batch
// timeout for low latency.
type Kafka[ID core.StateID] struct {
	writer *kafka.Writer
}

func NewKafka[ID core.StateID](brokers []string, topic string) *Kafka[ID] {
	return &Kafka[ID]{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (k *Kafka[ID]) Publish(ctx context.Context, stateId ID, event core.FullyEvent[ID]) error {
	env := envelope{
		TypeCode:  event.TypeCode,
		Version:   event.BasicInfo.Version,
		Timestamp: event.BasicInfo.Timestamp,
		Payload:   json.RawMessage(event.PayloadBytes),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%v", stateId)),
		Value: data,
		Time:  time.Now(),
	})
}

func (k *Kafka[ID]) PublishBare(ctx context.Context, stateId ID, typeCode string, payload []byte) error {
	env := envelope{TypeCode: typeCode, Payload: json.RawMessage(payload)}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%v", stateId)),
		Value: data,
		Time:  time.Now(),
	})
}

func (k *Kafka[ID]) Close() error {
	return k.writer.Close()
}
