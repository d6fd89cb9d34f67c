// Package events publishes issued order plans to an SNS topic.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/models"
)

const EventType = "order.planned"

// SNSAPI is the subset of the SNS client used by the publisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Publisher struct {
	client   SNSAPI
	topicARN string
	logger   logger.Logger
}

func NewPublisher(client SNSAPI, topicARN string, log logger.Logger) *Publisher {
	return &Publisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.With(map[string]interface{}{"component": "events"}),
	}
}

func (p *Publisher) Name() string {
	return "events"
}

type planEvent struct {
	Type     string              `json:"type"`
	Prompt   string              `json:"prompt"`
	Location string              `json:"location"`
	Plan     *models.OrderResult `json:"plan"`
}

// Record publishes the plan as a JSON message tagged with its platform.
func (p *Publisher) Record(ctx context.Context, req models.OrderRequest, result *models.OrderResult) error {
	location := ""
	if req.Location != nil {
		location = *req.Location
	}

	body, err := json.Marshal(planEvent{
		Type:     EventType,
		Prompt:   req.Prompt,
		Location: location,
		Plan:     result,
	})
	if err != nil {
		return fmt.Errorf("marshal plan event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventType)},
			"platform":   {DataType: aws.String("String"), StringValue: aws.String(result.Platform)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish plan %s: %w", result.PlanID, err)
	}

	p.logger.Debug("plan published", map[string]interface{}{
		"planId":    result.PlanID,
		"messageId": aws.ToString(out.MessageId),
	})
	return nil
}
