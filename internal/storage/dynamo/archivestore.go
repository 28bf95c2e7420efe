// Package dynamo implements core.ArchiveStoreGateway against DynamoDB:
// plain attributevalue marshaling, conditional PutItem for uniqueness,
// Query by partition key. Archive storage is a natural fit for DynamoDB's
// streaming story: a PutItem against the briefs table is what the observer
// stream trigger (internal/observer/streamtrigger.go) ultimately reacts to
// downstream via DynamoDB Streams and Kinesis.
package dynamo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/example/eventactor/internal/core"
)

// briefItem is the DynamoDB item shape for one archive brief.
type briefItem struct {
	StateId        string `dynamodbav:"state_id"`
	BriefId        string `dynamodbav:"brief_id"`
	Index          int    `dynamodbav:"index"`
	StartVersion   int64  `dynamodbav:"start_version"`
	EndVersion     int64  `dynamodbav:"end_version"`
	StartTimestamp int64  `dynamodbav:"start_timestamp"`
	EndTimestamp   int64  `dynamodbav:"end_timestamp"`
	EventIsCleared bool   `dynamodbav:"event_is_cleared"`
}

// bodyItem is the DynamoDB item shape for one archived snapshot body, stored
// in a separate table keyed the same way (state_id, brief_id).
type bodyItem struct {
	StateId                 string `dynamodbav:"state_id"`
	BriefId                 string `dynamodbav:"brief_id"`
	Payload                 string `dynamodbav:"payload"`
	Version                 int64  `dynamodbav:"version"`
	DoingVersion            int64  `dynamodbav:"doing_version"`
	StartTimestamp          int64  `dynamodbav:"start_timestamp"`
	LatestMinEventTimestamp int64  `dynamodbav:"latest_min_event_timestamp"`
	IsLatest                bool   `dynamodbav:"is_latest"`
	IsOver                  bool   `dynamodbav:"is_over"`
}

// stateItem tracks the Over flag and the archived-events watermark per
// aggregate, keeping small per-aggregate bookkeeping apart from the
// high-volume tables.
type stateItem struct {
	StateId     string `dynamodbav:"state_id"`
	Over        bool   `dynamodbav:"over"`
	ArchivedEnd int64  `dynamodbav:"archived_end_version"`
}

// archivedEventItem is one event moved out of the live log by the "Move"
// EventArchiveType policy, keyed the same way the live event table is
// (state_id, version) so a reader can query this table exactly like the
// event log once the source rows are gone.
type archivedEventItem struct {
	StateId   string `dynamodbav:"state_id"`
	Version   int64  `dynamodbav:"version"`
	Timestamp int64  `dynamodbav:"timestamp"`
	TypeCode  string `dynamodbav:"type_code"`
	Payload   []byte `dynamodbav:"payload"`
	UniqueKey string `dynamodbav:"unique_key"`
}

// ArchiveStore is a core.ArchiveStoreGateway[ID, P] backed by DynamoDB.
type ArchiveStore[ID core.StateID, P any] struct {
	client     *dynamodb.Client
	briefTable string
	bodyTable  string
	stateTable string
	eventTable string
	codec      IDCodec[ID]
}

func NewArchiveStore[ID core.StateID, P any](client *dynamodb.Client, briefTable, bodyTable, stateTable, eventTable string, codec IDCodec[ID]) *ArchiveStore[ID, P] {
	return &ArchiveStore[ID, P]{
		client:     client,
		briefTable: briefTable,
		bodyTable:  bodyTable,
		stateTable: stateTable,
		eventTable: eventTable,
		codec:      codec,
	}
}

func (s *ArchiveStore[ID, P]) GetBriefs(ctx context.Context, stateId ID) ([]*core.ArchiveBrief[ID], error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.briefTable),
		KeyConditionExpression: aws.String("state_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}

	briefs := make([]*core.ArchiveBrief[ID], 0, len(out.Items))
	for _, item := range out.Items {
		var bi briefItem
		if err := attributevalue.UnmarshalMap(item, &bi); err != nil {
			return nil, fmt.Errorf("unmarshal brief: %w", err)
		}
		briefId, err := uuid.Parse(bi.BriefId)
		if err != nil {
			return nil, fmt.Errorf("parse brief id: %w", err)
		}
		briefs = append(briefs, &core.ArchiveBrief[ID]{
			StateId:        stateId,
			Id:             briefId,
			Index:          bi.Index,
			StartVersion:   bi.StartVersion,
			EndVersion:     bi.EndVersion,
			StartTimestamp: bi.StartTimestamp,
			EndTimestamp:   bi.EndTimestamp,
			EventIsCleared: bi.EventIsCleared,
		})
	}
	return briefs, nil
}

func (s *ArchiveStore[ID, P]) GetByID(ctx context.Context, stateId ID, briefId uuid.UUID) (*core.Snapshot[ID, P], error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.bodyTable),
		Key: map[string]types.AttributeValue{
			"state_id": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
			"brief_id": &types.AttributeValueMemberS{Value: briefId.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get archive body: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var bi bodyItem
	if err := attributevalue.UnmarshalMap(out.Item, &bi); err != nil {
		return nil, fmt.Errorf("unmarshal archive body: %w", err)
	}
	snap := &core.Snapshot[ID, P]{
		StateId:                 stateId,
		Version:                 bi.Version,
		DoingVersion:            bi.DoingVersion,
		StartTimestamp:          bi.StartTimestamp,
		LatestMinEventTimestamp: bi.LatestMinEventTimestamp,
		IsLatest:                bi.IsLatest,
		IsOver:                  bi.IsOver,
	}
	if err := json.Unmarshal([]byte(bi.Payload), &snap.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal archive payload: %w", err)
	}
	return snap, nil
}

func (s *ArchiveStore[ID, P]) Insert(ctx context.Context, brief *core.ArchiveBrief[ID], snap *core.Snapshot[ID, P]) error {
	briefAV, err := attributevalue.MarshalMap(briefItem{
		StateId:        s.codec.Format(brief.StateId),
		BriefId:        brief.Id.String(),
		Index:          brief.Index,
		StartVersion:   brief.StartVersion,
		EndVersion:     brief.EndVersion,
		StartTimestamp: brief.StartTimestamp,
		EndTimestamp:   brief.EndTimestamp,
		EventIsCleared: brief.EventIsCleared,
	})
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.briefTable),
		Item:                briefAV,
		ConditionExpression: aws.String("attribute_not_exists(state_id) OR attribute_not_exists(brief_id)"),
	})
	if err != nil {
		return fmt.Errorf("put brief: %w", err)
	}

	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("marshal archive payload: %w", err)
	}
	bodyAV, err := attributevalue.MarshalMap(bodyItem{
		StateId:                 s.codec.Format(brief.StateId),
		BriefId:                 brief.Id.String(),
		Payload:                 string(payload),
		Version:                 snap.Version,
		DoingVersion:            snap.DoingVersion,
		StartTimestamp:          snap.StartTimestamp,
		LatestMinEventTimestamp: snap.LatestMinEventTimestamp,
		IsLatest:                snap.IsLatest,
		IsOver:                  snap.IsOver,
	})
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.bodyTable),
		Item:      bodyAV,
	})
	if err != nil {
		return fmt.Errorf("put body: %w", err)
	}
	return nil
}

func (s *ArchiveStore[ID, P]) Delete(ctx context.Context, stateId ID, briefId uuid.UUID) error {
	key := map[string]types.AttributeValue{
		"state_id": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
		"brief_id": &types.AttributeValueMemberS{Value: briefId.String()},
	}
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(s.briefTable), Key: key}); err != nil {
		return fmt.Errorf("delete brief: %w", err)
	}
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{TableName: aws.String(s.bodyTable), Key: key}); err != nil {
		return fmt.Errorf("delete body: %w", err)
	}
	return nil
}

func (s *ArchiveStore[ID, P]) DeleteAll(ctx context.Context, stateId ID) error {
	briefs, err := s.GetBriefs(ctx, stateId)
	if err != nil {
		return err
	}
	for _, b := range briefs {
		if err := s.Delete(ctx, stateId, b.Id); err != nil {
			return err
		}
	}
	return nil
}

func (s *ArchiveStore[ID, P]) EventIsClear(ctx context.Context, stateId ID, briefId uuid.UUID) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.briefTable),
		Key: map[string]types.AttributeValue{
			"state_id": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
			"brief_id": &types.AttributeValueMemberS{Value: briefId.String()},
		},
		UpdateExpression: aws.String("SET event_is_cleared = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return fmt.Errorf("mark brief cleared: %w", err)
	}
	return nil
}

// EventArchive persists events into the dedicated archived-events table
// (the "Move" EventArchiveType policy's actual event-table migration) and
// then advances the per-aggregate archived-events watermark. Callers are
// expected to only delete the corresponding rows from the live log once
// this call has returned successfully, per stateId at a time so the writes
// aren't racing PutItem calls for the same partition.
func (s *ArchiveStore[ID, P]) EventArchive(ctx context.Context, stateId ID, events []core.FullyEvent[ID], endVersion int64, startTimestamp int64) error {
	for _, ev := range events {
		item, err := attributevalue.MarshalMap(archivedEventItem{
			StateId:   s.codec.Format(stateId),
			Version:   ev.BasicInfo.Version,
			Timestamp: ev.BasicInfo.Timestamp,
			TypeCode:  ev.TypeCode,
			Payload:   ev.PayloadBytes,
			UniqueKey: ev.UniqueKey,
		})
		if err != nil {
			return fmt.Errorf("marshal archived event v%d: %w", ev.BasicInfo.Version, err)
		}
		if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.eventTable), Item: item}); err != nil {
			return fmt.Errorf("put archived event v%d: %w", ev.BasicInfo.Version, err)
		}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.stateTable),
		Key: map[string]types.AttributeValue{
			"state_id": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
		},
		UpdateExpression: aws.String("SET archived_end_version = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", endVersion)},
		},
	})
	if err != nil {
		return fmt.Errorf("update archived watermark: %w", err)
	}
	return nil
}

func (s *ArchiveStore[ID, P]) Over(ctx context.Context, stateId ID, over bool) error {
	av, err := attributevalue.Marshal(over)
	if err != nil {
		return fmt.Errorf("marshal over flag: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.stateTable),
		Key: map[string]types.AttributeValue{
			"state_id": &types.AttributeValueMemberS{Value: s.codec.Format(stateId)},
		},
		UpdateExpression: aws.String("SET #o = :o"),
		ExpressionAttributeNames: map[string]string{
			"#o": "over",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": av,
		},
	})
	if err != nil {
		return fmt.Errorf("update over flag: %w", err)
	}
	return nil
}
