package ddb

import (
	"context"

	"bookpulse/internal/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ListingStore implements ports.ListingStore: PK=LISTING#<id>, SK=PROFILE.
// Query scans the listing partition and filters in process; the catalog is
// small relative to message volume, and filters are too ad hoc for an index
// per combination.
type ListingStore struct {
	table string
	cli   *dynamodb.Client
}

type listingItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.Listing
}

func NewListingStore(table string, cli *dynamodb.Client) *ListingStore {
	createTableIfNotExists(cli, table)
	return &ListingStore{table: table, cli: cli}
}

func (s *ListingStore) Put(ctx context.Context, l types.Listing) error {
	av, err := attributevalue.MarshalMap(listingItem{
		PK:      pkListing(l.ID),
		SK:      skProfile(),
		Listing: l,
	})
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      av,
	})
	if err != nil {
		return types.Err(types.ErrStoreAccess, err, "put listing")
	}
	return nil
}

func (s *ListingStore) Query(ctx context.Context, params types.SearchParams) ([]types.Listing, error) {
	var listings []types.Listing
	var startKey map[string]ddbTypes.AttributeValue
	for {
		out, err := s.cli.Scan(ctx, &dynamodb.ScanInput{
			TableName:        &s.table,
			FilterExpression: awsString("begins_with(PK, :pk)"),
			ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
				":pk": &ddbTypes.AttributeValueMemberS{Value: SListing + "#"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, types.Err(types.ErrStoreAccess, err, "scan listings")
		}
		for _, raw := range out.Items {
			var item listingItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, err
			}
			if params.Match(item.Listing) {
				listings = append(listings, item.Listing)
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return listings, nil
}

func (s *ListingStore) ClearAll(ctx context.Context) error {
	return clearByPrefix(ctx, s.cli, s.table, SListing+"#")
}

// clearByPrefix deletes every item whose PK starts with prefix. Test helper.
func clearByPrefix(ctx context.Context, cli *dynamodb.Client, table, prefix string) error {
	out, err := cli.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &table,
		FilterExpression: awsString("begins_with(PK, :pk)"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":pk": &ddbTypes.AttributeValueMemberS{Value: prefix},
		},
		ProjectionExpression: awsString("PK, SK"),
	})
	if err != nil {
		return err
	}
	for _, item := range out.Items {
		_, err := cli.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &table,
			Key: map[string]ddbTypes.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
