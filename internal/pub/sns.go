// Package pub hands events with no live subscribers to SNS, where the push
// pipeline picks them up and nudges offline conversation participants.
package pub

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsPub struct{ cli *sns.Client }

func NewSNS(c *sns.Client) *snsPub { return &snsPub{cli: c} }

// PublishRaw sends the event payload as-is. The topic id rides along as a
// message attribute so push consumers can route without parsing the body.
func (s *snsPub) PublishRaw(ctx context.Context, arn, topicID string, payload []byte) error {
	_, err := s.cli.Publish(ctx, &sns.PublishInput{
		TopicArn: &arn,
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"content-type": {DataType: aws.String("String"), StringValue: aws.String("application/json")},
			"topic-id":     {DataType: aws.String("String"), StringValue: aws.String(topicID)},
		},
	})
	return err
}
