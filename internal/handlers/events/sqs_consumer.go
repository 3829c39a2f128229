package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/internal/services/capture"
	"github.com/kevin07696/bnpl-service/internal/services/refund"
	pkgerrors "github.com/kevin07696/bnpl-service/pkg/errors"
	"github.com/kevin07696/bnpl-service/pkg/observability"
	"github.com/kevin07696/bnpl-service/pkg/resilience"
)

// Lifecycle events emitted by the host platform
const (
	EventShipmentCreated   = "shipment.created"
	EventCreditMemoCreated = "creditmemo.created"
)

// receiveErrorBackoff is the pause after a failed ReceiveMessage
const receiveErrorBackoff = 5 * time.Second

// SQSAPI is the subset of the SQS client the consumer calls
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// OrderCapturer captures an order after shipment
type OrderCapturer interface {
	CaptureOrder(ctx context.Context, orderID int64) (*capture.Outcome, error)
}

// CreditMemoRefunder refunds an order after a credit memo is created
type CreditMemoRefunder interface {
	HandleCreditMemoCreated(ctx context.Context, creditMemoID int64) (*refund.Outcome, error)
}

// Event is a host platform lifecycle event
type Event struct {
	EventType    string `json:"event_type"`
	OrderID      int64  `json:"order_id,omitempty"`
	ShipmentID   int64  `json:"shipment_id,omitempty"`
	CreditMemoID int64  `json:"credit_memo_id,omitempty"`
}

// snsEnvelope unwraps the SNS → SQS message wrapper
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// ConsumerConfig configures long polling
type ConsumerConfig struct {
	QueueURL        string
	WaitTimeSeconds int32
	MaxMessages     int32
}

// SQSConsumer dispatches lifecycle events to the capture and refund services
type SQSConsumer struct {
	client   SQSAPI
	config   ConsumerConfig
	captures OrderCapturer
	refunds  CreditMemoRefunder
	timeouts *resilience.TimeoutConfig
	logger   ports.Logger
}

// NewSQSConsumer creates a consumer for config.QueueURL
func NewSQSConsumer(client SQSAPI, config ConsumerConfig, captures OrderCapturer, refunds CreditMemoRefunder, logger ports.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:   client,
		config:   config,
		captures: captures,
		refunds:  refunds,
		timeouts: resilience.DefaultTimeoutConfig(),
		logger:   logger,
	}
}

// SetTimeouts replaces the per-event timeout configuration
func (c *SQSConsumer) SetTimeouts(timeouts *resilience.TimeoutConfig) {
	c.timeouts = timeouts
}

// Start polls until ctx is done
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("SQS consumer started", ports.String("queue", c.config.QueueURL))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SQS consumer shutting down")
			return
		default:
			if err := c.Poll(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("SQS receive error", ports.Err(err))
				select {
				case <-ctx.Done():
				case <-time.After(receiveErrorBackoff):
				}
			}
		}
	}
}

// Poll receives one batch and processes every message in it
func (c *SQSConsumer) Poll(ctx context.Context) error {
	output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.config.QueueURL),
		MaxNumberOfMessages: c.config.MaxMessages,
		WaitTimeSeconds:     c.config.WaitTimeSeconds,
	})
	if err != nil {
		return fmt.Errorf("receive messages: %w", err)
	}

	for _, msg := range output.Messages {
		c.processMessage(ctx, msg)
	}
	return nil
}

func (c *SQSConsumer) processMessage(ctx context.Context, msg types.Message) {
	body := aws.ToString(msg.Body)
	if body == "" || aws.ToString(msg.ReceiptHandle) == "" {
		// Left for the redrive policy
		c.logger.Error("received SQS message without body or receipt handle",
			ports.String("message_id", aws.ToString(msg.MessageId)))
		return
	}

	event, err := decodeEvent(body)
	if err != nil {
		c.logger.Error("failed to decode lifecycle event",
			ports.String("message_id", aws.ToString(msg.MessageId)),
			ports.Err(err))
		observability.RecordEventConsumed("unknown", "malformed")
		c.deleteMessage(ctx, msg.ReceiptHandle)
		return
	}

	eventCtx, cancel := c.timeouts.EventContext(ctx)
	err = c.dispatch(eventCtx, event)
	cancel()
	switch {
	case err == nil:
		observability.RecordEventConsumed(event.EventType, "processed")
		c.deleteMessage(ctx, msg.ReceiptHandle)
	case isTransient(err):
		// Not deleted: SQS redelivers after the visibility timeout
		observability.RecordEventConsumed(event.EventType, "retry")
		c.logger.Warn("lifecycle event will be redelivered",
			ports.String("event_type", event.EventType),
			ports.Err(err))
	default:
		observability.RecordEventConsumed(event.EventType, "failed")
		c.logger.Error("failed to process lifecycle event",
			ports.String("event_type", event.EventType),
			ports.String("error_code", string(domain.GetErrorCode(err))),
			ports.Err(err))
		c.deleteMessage(ctx, msg.ReceiptHandle)
	}
}

func (c *SQSConsumer) dispatch(ctx context.Context, event *Event) error {
	switch event.EventType {
	case EventShipmentCreated:
		if event.OrderID == 0 {
			return domain.NewDomainError(domain.ErrorCodeOrderNotFound, "shipment event without order id")
		}
		outcome, err := c.captures.CaptureOrder(ctx, event.OrderID)
		if err != nil {
			return err
		}
		c.logger.Info("shipment event handled",
			ports.Int64("order_id", event.OrderID),
			ports.String("stage", string(outcome.Stage)))
		return nil

	case EventCreditMemoCreated:
		if event.CreditMemoID == 0 {
			return domain.NewDomainError(domain.ErrorCodeCreditMemoNotFound, "credit memo event without credit memo id")
		}
		outcome, err := c.refunds.HandleCreditMemoCreated(ctx, event.CreditMemoID)
		if err != nil {
			return err
		}
		c.logger.Info("credit memo event handled",
			ports.Int64("credit_memo_id", event.CreditMemoID),
			ports.Bool("refunded", outcome.Refunded))
		return nil

	default:
		c.logger.Debug("ignoring lifecycle event", ports.String("event_type", event.EventType))
		return nil
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.config.QueueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error("failed to delete SQS message", ports.Err(err))
	}
}

// decodeEvent accepts SNS-wrapped and raw-delivery messages
func decodeEvent(body string) (*Event, error) {
	var envelope snsEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	payload := body
	if envelope.Type == "Notification" || envelope.Message != "" {
		payload = envelope.Message
	}

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	if event.EventType == "" {
		return nil, errors.New("event has no event_type")
	}
	return &event, nil
}

// isTransient reports provider failures the provider marked retriable.
// Everything else is permanent for this event and would fail the same way again.
func isTransient(err error) bool {
	return pkgerrors.IsRetriable(err)
}
