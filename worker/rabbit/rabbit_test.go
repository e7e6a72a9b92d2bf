package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []published
	err    error
	onSend func(amqp.Publishing)
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.sent = append(p.sent, published{exchange: exchange, key: key, msg: msg})
	p.mu.Unlock()
	if p.onSend != nil {
		p.onSend(msg)
	}
	return nil
}

type fakeAck struct {
	acked, nacked, rejected int
}

func (a *fakeAck) Ack(uint64, bool) error        { a.acked++; return nil }
func (a *fakeAck) Nack(uint64, bool, bool) error { a.nacked++; return nil }
func (a *fakeAck) Reject(uint64, bool) error     { a.rejected++; return nil }

type fakeComputer struct {
	items []entities.HistoryItem
	err   error
	got   entities.HistoryRequest
}

func (c *fakeComputer) History(_ context.Context, userID int64, months int) ([]entities.HistoryItem, error) {
	c.got = entities.HistoryRequest{UserID: userID, Months: months}
	return c.items, c.err
}

func TestHistoryClientRoundTrip(t *testing.T) {
	replies := make(chan amqp.Delivery, 1)
	pub := &fakePublisher{}
	pub.onSend = func(msg amqp.Publishing) {
		var req entities.HistoryRequest
		require.NoError(t, json.Unmarshal(msg.Body, &req))
		assert.Equal(t, entities.HistoryRequest{UserID: 7, Months: 2}, req)

		body, _ := json.Marshal(entities.HistoryReply{Items: []entities.HistoryItem{{Date: "2024-01-31", Value: 10}}})
		replies <- amqp.Delivery{CorrelationId: msg.CorrelationId, Body: body}
	}

	client := NewHistoryClient(pub, "reply-q", zap.NewNop())
	go client.Listen(replies)
	defer close(replies)

	items, err := client.History(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, []entities.HistoryItem{{Date: "2024-01-31", Value: 10}}, items)

	require.Len(t, pub.sent, 1)
	assert.Equal(t, HISTORY_QUEUE_REQ, pub.sent[0].key)
	assert.Equal(t, "reply-q", pub.sent[0].msg.ReplyTo)
	assert.NotEmpty(t, pub.sent[0].msg.CorrelationId)
}

func TestHistoryClientWorkerError(t *testing.T) {
	replies := make(chan amqp.Delivery, 1)
	pub := &fakePublisher{}
	pub.onSend = func(msg amqp.Publishing) {
		body, _ := json.Marshal(entities.HistoryReply{Error: "boom"})
		replies <- amqp.Delivery{CorrelationId: msg.CorrelationId, Body: body}
	}

	client := NewHistoryClient(pub, "reply-q", zap.NewNop())
	go client.Listen(replies)
	defer close(replies)

	_, err := client.History(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrWorker)
}

func TestHistoryClientContextDone(t *testing.T) {
	client := NewHistoryClient(&fakePublisher{}, "reply-q", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.History(ctx, 1, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, client.pending)
}

func TestHistoryClientPublishError(t *testing.T) {
	client := NewHistoryClient(&fakePublisher{err: errors.New("closed")}, "reply-q", zap.NewNop())

	_, err := client.History(context.Background(), 1, 1)
	assert.Error(t, err)
	assert.Empty(t, client.pending)
}

func TestHistoryServerHandle(t *testing.T) {
	body, _ := json.Marshal(entities.HistoryRequest{UserID: 3, Months: 6})

	tests := []struct {
		name      string
		body      []byte
		computer  *fakeComputer
		wantReply entities.HistoryReply
		wantAck   *fakeAck
	}{
		{
			name:      "success",
			body:      body,
			computer:  &fakeComputer{items: []entities.HistoryItem{{Date: "2024-01-31", Value: 5}}},
			wantReply: entities.HistoryReply{Items: []entities.HistoryItem{{Date: "2024-01-31", Value: 5}}},
			wantAck:   &fakeAck{acked: 1},
		},
		{
			name:      "engine failure",
			body:      body,
			computer:  &fakeComputer{err: errors.New("db down")},
			wantReply: entities.HistoryReply{Error: "history calculation failed"},
			wantAck:   &fakeAck{rejected: 1},
		},
		{
			name:      "malformed body",
			body:      []byte("{"),
			computer:  &fakeComputer{},
			wantReply: entities.HistoryReply{Error: "malformed request"},
			wantAck:   &fakeAck{rejected: 1},
		},
		{
			name:      "non-positive months",
			body:      []byte(`{"userId":3,"months":0}`),
			computer:  &fakeComputer{},
			wantReply: entities.HistoryReply{Error: "months must be at least 1, got 0"},
			wantAck:   &fakeAck{rejected: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			ack := &fakeAck{}
			server := NewHistoryServer(pub, tt.computer, time.Second, zap.NewNop())

			server.Handle(context.Background(), amqp.Delivery{
				Acknowledger:  ack,
				CorrelationId: "cid-1",
				ReplyTo:       "reply-q",
				Body:          tt.body,
			})

			require.Len(t, pub.sent, 1)
			assert.Equal(t, "reply-q", pub.sent[0].key)
			assert.Equal(t, "cid-1", pub.sent[0].msg.CorrelationId)

			var reply entities.HistoryReply
			require.NoError(t, json.Unmarshal(pub.sent[0].msg.Body, &reply))
			assert.Equal(t, tt.wantReply, reply)
			assert.Equal(t, tt.wantAck, ack)
		})
	}
}

func TestHistoryServerPassesRequest(t *testing.T) {
	computer := &fakeComputer{}
	server := NewHistoryServer(&fakePublisher{}, computer, 0, zap.NewNop())

	server.Handle(context.Background(), amqp.Delivery{
		Acknowledger: &fakeAck{},
		Body:         []byte(`{"userId":9,"months":4}`),
	})

	assert.Equal(t, entities.HistoryRequest{UserID: 9, Months: 4}, computer.got)
}
