package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/eventactor/internal/core"
	"github.com/segmentio/kafka-go"
)

// ObserverRegistry is the subset of observer.Registry this consumer needs,
// kept narrow so the bus package doesn't import observer (which would
// import core, which bus already imports — avoiding an import cycle is
// incidental; the real reason is the consumer only ever calls Ack).
type ObserverRegistry[ID core.StateID] interface {
	Ack(stateId ID, observerName string, version int64)
}

// KafkaObserverConsumer reads the envelopes Kafka.Publish writes and acks
// them into an ObserverRegistry under observerName: it records that the
// named observer has now seen stateId through version. This is the
// asynchronous catch-up path SyncAllObserversOnActivate relies on when the
// synchronous fan-out in lifecycle.go was skipped or only partially
// succeeded.
type KafkaObserverConsumer[ID core.StateID] struct {
	reader       *kafka.Reader
	registry     ObserverRegistry[ID]
	observerName string
	codec        IDCodec[ID]
}

func NewKafkaObserverConsumer[ID core.StateID](brokers []string, topic, groupID, observerName string, registry ObserverRegistry[ID], codec IDCodec[ID]) *KafkaObserverConsumer[ID] {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &KafkaObserverConsumer[ID]{reader: reader, registry: registry, observerName: observerName, codec: codec}
}

// Run consumes until ctx is cancelled. A malformed message or an
// unparseable key is logged and skipped rather than aborting the loop;
// one bad record must not stall the whole partition.
func (c *KafkaObserverConsumer[ID]) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[bus:kafka-consumer] read error: %v", err)
			continue
		}

		if err := c.ack(msg); err != nil {
			log.Printf("[bus:kafka-consumer] %v", err)
		}
	}
}

func (c *KafkaObserverConsumer[ID]) ack(msg kafka.Message) error {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}
	stateId, err := c.codec.Parse(string(msg.Key))
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}
	c.registry.Ack(stateId, c.observerName, env.Version)
	return nil
}

func (c *KafkaObserverConsumer[ID]) Close() error {
	return c.reader.Close()
}
