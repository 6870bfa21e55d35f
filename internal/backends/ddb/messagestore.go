package ddb

import (
	"context"

	"bookpulse/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MessageStore implements ports.MessageStore on a PK/SK single table:
// PK=TOPIC#<id>, SK=MSG#<sent_at>#<msg_id>.
type MessageStore struct {
	table string
	cli   *dynamodb.Client
}

type messageItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.Message
}

func NewMessageStore(table string, cli *dynamodb.Client) *MessageStore {
	createTableIfNotExists(cli, table)
	return &MessageStore{table: table, cli: cli}
}

func (s *MessageStore) Append(ctx context.Context, msg types.Message) error {
	item := messageItem{
		PK:      pkTopic(msg.TopicID),
		SK:      skMsg(msg.SentAt, msg.ID),
		Message: msg,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return types.Err(types.ErrStoreAccess, err, "append message")
	}
	return nil
}

// Recent reads the newest limit messages (descending query) and returns them
// oldest first.
func (s *MessageStore) Recent(ctx context.Context, topicID string, limit int) ([]types.Message, error) {
	out, err := s.cli.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.table,
		KeyConditionExpression: awsString("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: pkTopic(topicID)},
			":sk": &ddbTypes.AttributeValueMemberS{Value: SMsg + "#"},
		},
		ScanIndexForward: awsBool(false),
		Limit:            awsInt32(int32(limit)),
	})
	if err != nil {
		return nil, types.Err(types.ErrStoreAccess, err, "query messages")
	}
	msgs := make([]types.Message, 0, len(out.Items))
	for i := len(out.Items) - 1; i >= 0; i-- {
		var item messageItem
		if err := attributevalue.UnmarshalMap(out.Items[i], &item); err != nil {
			return nil, err
		}
		msgs = append(msgs, item.Message)
	}
	return msgs, nil
}

func (s *MessageStore) ClearAll(ctx context.Context) error {
	return clearByPrefix(ctx, s.cli, s.table, STopic+"#")
}
