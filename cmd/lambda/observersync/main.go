// Command observersync is the lambda entry point that acks the in-process
// observer registry from a DynamoDB-Streams-via-Kinesis trigger on the
// archive brief table. init() wires dependencies once per cold start,
// handler() processes one batch, reporting partial failures instead of
// aborting it.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/example/eventactor/internal/observer"
)

// registry is process-local: a real deployment needs Ack backed by a
// shared store so acks survive past this cold start.
var registry *observer.Registry[string]

func init() {
	registry = observer.NewRegistry[string]()
	log.Println("[Lambda ObserverSync] initialized")
}

func observerName() string {
	if n := os.Getenv("OBSERVER_NAME"); n != "" {
		return n
	}
	return "default"
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	acks, failures := observer.BatchConvertFromKinesisEvent(kinesisEvent)

	var batchItemFailures []events.KinesisBatchItemFailure
	for _, f := range failures {
		log.Printf("[Lambda ObserverSync] convert failed: %v", f.Err)
		batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: f.SequenceNumber,
		})
	}

	for _, ack := range acks {
		registry.Ack(ack.StateId, observerName(), ack.Version)
		log.Printf("[Lambda ObserverSync] acked %s at version %d", ack.StateId, ack.Version)
	}

	return events.KinesisEventResponse{BatchItemFailures: batchItemFailures}, nil
}

func main() {
	lambda.Start(handler)
}
