package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/domain/ports"
	"github.com/kevin07696/bnpl-service/pkg/timeutil"
)

// EventInvoiceCreated is the event type of invoice e-mail requests
const EventInvoiceCreated = "invoice.created"

// SNSPublisher is the subset of the SNS client the notifier calls
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// InvoiceMessage is the notification consumed by the e-mail service
type InvoiceMessage struct {
	EventType     string `json:"event_type"`
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	GrandTotal    string `json:"grand_total"`
	Currency      string `json:"currency"`
	CreatedAt     string `json:"created_at"`
}

// SNSInvoiceNotifier implements ports.InvoiceNotifier by publishing to an SNS topic
type SNSInvoiceNotifier struct {
	client   SNSPublisher
	topicARN string
	logger   ports.Logger
}

var _ ports.InvoiceNotifier = (*SNSInvoiceNotifier)(nil)

// NewSNSInvoiceNotifier creates a notifier publishing to topicARN
func NewSNSInvoiceNotifier(client SNSPublisher, topicARN string, logger ports.Logger) *SNSInvoiceNotifier {
	return &SNSInvoiceNotifier{client: client, topicARN: topicARN, logger: logger}
}

// SendInvoice publishes the invoice e-mail request
func (n *SNSInvoiceNotifier) SendInvoice(ctx context.Context, invoice *domain.Invoice) error {
	msg := InvoiceMessage{
		EventType:     EventInvoiceCreated,
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.IncrementID,
		OrderID:       invoice.OrderID,
		GrandTotal:    invoice.GrandTotal.StringFixed(2),
		Currency:      invoice.Currency,
		CreatedAt:     timeutil.RFC3339(invoice.CreatedAt),
	}
	if invoice.Order != nil {
		msg.OrderNumber = invoice.Order.IncrementID
		msg.CustomerEmail = invoice.Order.CustomerEmail
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice message: %w", err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventInvoiceCreated),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish invoice %d: %w", invoice.ID, err)
	}

	n.logger.Debug("invoice notification published",
		ports.Int64("invoice_id", invoice.ID),
		ports.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
