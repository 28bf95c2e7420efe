package observer

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// StreamAck is a committed-version fact extracted from a DynamoDB Stream /
// Kinesis record: this observer has now processed stateId through version.
type StreamAck struct {
	StateId string
	Version int64
}

// ConvertFromDynamoDBStreamRecord extracts a StreamAck from a DynamoDB
// Stream INSERT record. Only the two fields an observer ack needs are
// pulled out of the image; the rest of the record is ignored.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*StreamAck, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}
	return convertStreamImage(record.Change.NewImage)
}

// ConvertFromKinesisRecord unwraps a Kinesis record carrying a DynamoDB
// Streams payload, the integration that fans archive writes out to
// observers.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*StreamAck, error) {
	var dynamoDBRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &dynamoDBRecord); err != nil {
		return nil, fmt.Errorf("unmarshal dynamodb record: %w", err)
	}
	if dynamoDBRecord.EventName != "INSERT" {
		return nil, nil
	}
	return convertStreamImage(dynamoDBRecord.Change.NewImage)
}

// convertStreamImage handles inserts from both archive tables: a brief
// row carries end_version (everything through it is archived), an
// archived-event row carries a plain version.
func convertStreamImage(image map[string]events.DynamoDBAttributeValue) (*StreamAck, error) {
	if image == nil {
		return nil, fmt.Errorf("dynamodb image is nil")
	}

	ack := &StreamAck{}
	if v, ok := image["state_id"]; ok {
		ack.StateId = v.String()
	}
	versionAttr, ok := image["end_version"]
	if !ok {
		versionAttr, ok = image["version"]
	}
	if ok {
		version, err := versionAttr.Integer()
		if err != nil {
			return nil, fmt.Errorf("parse version: %w", err)
		}
		ack.Version = version
	}

	if ack.StateId == "" {
		return nil, fmt.Errorf("missing required field: state_id")
	}
	return ack, nil
}

// ConvertFailure identifies a record that could not be converted. The
// sequence number is what a Kinesis batch response needs as ItemIdentifier
// so the failed record is redelivered rather than silently dropped.
type ConvertFailure struct {
	SequenceNumber string
	Err            error
}

// BatchConvertFromKinesisEvent converts every record in a Kinesis event,
// reporting per-record failures instead of aborting the batch.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*StreamAck, []ConvertFailure) {
	var acks []*StreamAck
	var failures []ConvertFailure
	for _, record := range kinesisEvent.Records {
		ack, err := ConvertFromKinesisRecord(record)
		if err != nil {
			failures = append(failures, ConvertFailure{
				SequenceNumber: record.Kinesis.SequenceNumber,
				Err:            fmt.Errorf("record %s: %w", record.EventID, err),
			})
			continue
		}
		if ack != nil {
			acks = append(acks, ack)
		}
	}
	return acks, failures
}
