package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/kevin07696/bnpl-service/internal/domain"
	"github.com/kevin07696/bnpl-service/internal/services/capture"
	"github.com/kevin07696/bnpl-service/internal/services/refund"
	pkgerrors "github.com/kevin07696/bnpl-service/pkg/errors"
	"github.com/kevin07696/bnpl-service/pkg/resilience"
	"github.com/kevin07696/bnpl-service/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]types.Message
	err      error
	deleted  []string
	receives int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receives++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeCapturer struct {
	orderIDs []int64
	err      error
	deadline time.Time
}

func (f *fakeCapturer) CaptureOrder(ctx context.Context, orderID int64) (*capture.Outcome, error) {
	f.orderIDs = append(f.orderIDs, orderID)
	f.deadline, _ = ctx.Deadline()
	if f.err != nil {
		return nil, f.err
	}
	return &capture.Outcome{OrderID: orderID, Stage: capture.StageNotified}, nil
}

type fakeRefunder struct {
	memoIDs []int64
	err     error
}

func (f *fakeRefunder) HandleCreditMemoCreated(ctx context.Context, creditMemoID int64) (*refund.Outcome, error) {
	f.memoIDs = append(f.memoIDs, creditMemoID)
	if f.err != nil {
		return nil, f.err
	}
	return &refund.Outcome{CreditMemoID: creditMemoID, Refunded: true}, nil
}

func message(receipt, body string) types.Message {
	return types.Message{
		MessageId:     aws.String("id-" + receipt),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(body),
	}
}

func newTestConsumer(batch ...types.Message) (*SQSConsumer, *fakeSQS, *fakeCapturer, *fakeRefunder, *mocks.MockLogger) {
	client := &fakeSQS{batches: [][]types.Message{batch}}
	captures := &fakeCapturer{}
	refunds := &fakeRefunder{}
	logger := mocks.NewMockLogger()
	consumer := NewSQSConsumer(client, ConsumerConfig{QueueURL: "https://sqs/queue", WaitTimeSeconds: 1, MaxMessages: 10}, captures, refunds, logger)
	return consumer, client, captures, refunds, logger
}

func TestSQSConsumer_SNSWrappedShipment(t *testing.T) {
	consumer, client, captures, _, _ := newTestConsumer(
		message("r1", `{"Type":"Notification","Message":"{\"event_type\":\"shipment.created\",\"order_id\":1001,\"shipment_id\":5}"}`),
	)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Equal(t, []int64{1001}, captures.orderIDs)
	assert.Equal(t, []string{"r1"}, client.deleted)
}

func TestSQSConsumer_RawCreditMemo(t *testing.T) {
	consumer, client, _, refunds, _ := newTestConsumer(
		message("r2", `{"event_type":"creditmemo.created","credit_memo_id":31,"order_id":1001}`),
	)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Equal(t, []int64{31}, refunds.memoIDs)
	assert.Equal(t, []string{"r2"}, client.deleted)
}

func TestSQSConsumer_MalformedIsDeleted(t *testing.T) {
	consumer, client, captures, _, logger := newTestConsumer(
		message("r3", `not json`),
		message("r4", `{"Message":"{}"}`),
	)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Empty(t, captures.orderIDs)
	assert.Equal(t, []string{"r3", "r4"}, client.deleted)
	assert.Len(t, logger.ErrorCalls, 2)
}

func TestSQSConsumer_RetriableProviderErrorIsRedelivered(t *testing.T) {
	consumer, client, captures, _, logger := newTestConsumer(
		message("r5", `{"event_type":"shipment.created","order_id":1001}`),
	)
	providerErr := pkgerrors.NewProviderError("GATEWAY_ERROR", "Payment provider error", pkgerrors.CategoryProvider)
	captures.err = domain.WrapError(domain.ErrorCodeProviderCallFailed, "payment provider call failed", providerErr)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Empty(t, client.deleted)
	require.Len(t, logger.WarnCalls, 1)
	assert.Equal(t, "lifecycle event will be redelivered", logger.WarnCalls[0].Message)
}

func TestSQSConsumer_PermanentErrorIsDeleted(t *testing.T) {
	consumer, client, _, refunds, logger := newTestConsumer(
		message("r6", `{"event_type":"creditmemo.created","credit_memo_id":404}`),
	)
	refunds.err = domain.WrapError(domain.ErrorCodeCreditMemoNotFound, "credit memo not found", errors.New("no rows"))

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Equal(t, []string{"r6"}, client.deleted)
	require.Len(t, logger.ErrorCalls, 1)
	assert.Equal(t, "failed to process lifecycle event", logger.ErrorCalls[0].Message)
}

func TestSQSConsumer_MissingIdentifiers(t *testing.T) {
	consumer, client, captures, refunds, _ := newTestConsumer(
		message("r7", `{"event_type":"shipment.created"}`),
		message("r8", `{"event_type":"creditmemo.created"}`),
	)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Empty(t, captures.orderIDs)
	assert.Empty(t, refunds.memoIDs)
	assert.Equal(t, []string{"r7", "r8"}, client.deleted)
}

func TestSQSConsumer_UnknownEventIsAcknowledged(t *testing.T) {
	consumer, client, captures, refunds, logger := newTestConsumer(
		message("r9", `{"event_type":"order.placed","order_id":1}`),
	)

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Empty(t, captures.orderIDs)
	assert.Empty(t, refunds.memoIDs)
	assert.Equal(t, []string{"r9"}, client.deleted)
	require.Len(t, logger.DebugCalls, 1)
}

func TestSQSConsumer_EmptyBodyIsKept(t *testing.T) {
	consumer, client, _, _, _ := newTestConsumer(types.Message{ReceiptHandle: aws.String("r10")})

	require.NoError(t, consumer.Poll(context.Background()))

	assert.Empty(t, client.deleted)
}

func TestSQSConsumer_ReceiveError(t *testing.T) {
	consumer, client, _, _, _ := newTestConsumer()
	client.err = errors.New("AccessDenied")

	err := consumer.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestSQSConsumer_StartStopsOnCancel(t *testing.T) {
	consumer, client, captures, _, _ := newTestConsumer(
		message("r11", `{"event_type":"shipment.created","order_id":7}`),
	)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		consumer.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return len(client.deleted) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, []int64{7}, captures.orderIDs)
}

func TestSQSConsumer_EventDeadline(t *testing.T) {
	consumer, _, captures, _, _ := newTestConsumer(
		message("r9", `{"event_type":"shipment.created","order_id":7}`),
	)
	consumer.SetTimeouts(resilience.TestTimeoutConfig())

	require.NoError(t, consumer.Poll(context.Background()))

	require.False(t, captures.deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(5*time.Second), captures.deadline, time.Second)
}
