package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	inputs []*sns.PublishInput
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	p.inputs = append(p.inputs, params)
	if p.err != nil {
		return nil, p.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func testInvoice() *domain.Invoice {
	return &domain.Invoice{
		ID:          77,
		IncrementID: "000000077",
		OrderID:     1001,
		GrandTotal:  decimal.NewFromInt(230),
		Currency:    "SAR",
		CreatedAt:   time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		Order:       &domain.Order{ID: 1001, IncrementID: "100000001", CustomerEmail: "buyer@example.com"},
	}
}

func TestSNSInvoiceNotifier_SendInvoice(t *testing.T) {
	publisher := &recordingPublisher{}
	logger := mocks.NewMockLogger()
	notifier := NewSNSInvoiceNotifier(publisher, "arn:aws:sns:me-south-1:123:invoices", logger)

	require.NoError(t, notifier.SendInvoice(context.Background(), testInvoice()))

	require.Len(t, publisher.inputs, 1)
	input := publisher.inputs[0]
	assert.Equal(t, "arn:aws:sns:me-south-1:123:invoices", aws.ToString(input.TopicArn))
	assert.Equal(t, EventInvoiceCreated, aws.ToString(input.MessageAttributes["event_type"].StringValue))

	var msg InvoiceMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &msg))
	assert.Equal(t, int64(77), msg.InvoiceID)
	assert.Equal(t, "000000077", msg.InvoiceNumber)
	assert.Equal(t, "100000001", msg.OrderNumber)
	assert.Equal(t, "buyer@example.com", msg.CustomerEmail)
	assert.Equal(t, "230.00", msg.GrandTotal)
	assert.Equal(t, "2026-04-02T10:00:00Z", msg.CreatedAt)
	require.Len(t, logger.DebugCalls, 1)
}

func TestSNSInvoiceNotifier_PublishError(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("throttled")}
	notifier := NewSNSInvoiceNotifier(publisher, "arn", mocks.NewMockLogger())

	err := notifier.SendInvoice(context.Background(), testInvoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish invoice 77")
}
