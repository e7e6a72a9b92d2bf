package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

// ErrWorker is returned when a history worker replies with an error.
var ErrWorker = errors.New("history worker")

// HistoryClient runs history calculations on remote workers. Replies arrive
// on a single queue and are routed back to callers by correlation id.
type HistoryClient struct {
	publisher Publisher
	replyTo   string
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]chan entities.HistoryReply
}

func NewHistoryClient(publisher Publisher, replyTo string, logger *zap.Logger) *HistoryClient {
	return &HistoryClient{
		publisher: publisher,
		replyTo:   replyTo,
		logger:    logger.With(zap.String("caller", "HistoryClient")),
		pending:   make(map[string]chan entities.HistoryReply),
	}
}

// Listen dispatches replies until deliveries is closed.
func (c *HistoryClient) Listen(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		c.mu.Lock()
		waiter, ok := c.pending[d.CorrelationId]
		delete(c.pending, d.CorrelationId)
		c.mu.Unlock()

		if !ok {
			c.logger.Info(fmt.Sprintf("history reply with unknown cid %s", d.CorrelationId))
			continue
		}

		var reply entities.HistoryReply
		if err := json.Unmarshal(d.Body, &reply); err != nil {
			reply = entities.HistoryReply{Error: fmt.Sprintf("decode reply: %v", err)}
		}
		waiter <- reply
	}
}

func (c *HistoryClient) History(ctx context.Context, userID int64, months int) ([]entities.HistoryItem, error) {
	cid := uuid.New().String()
	logger := c.logger.With(zap.String("method", "History"), zap.String("cid", cid))

	body, err := json.Marshal(entities.HistoryRequest{UserID: userID, Months: months})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	waiter := make(chan entities.HistoryReply, 1)
	c.mu.Lock()
	c.pending[cid] = waiter
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, cid)
		c.mu.Unlock()
	}()

	if err := c.publisher.PublishWithContext(ctx,
		"",                // exchange
		HISTORY_QUEUE_REQ, // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: cid,
			ReplyTo:       c.replyTo,
			Body:          body,
		}); err != nil {
		return nil, fmt.Errorf("publish history request: %w", err)
	}
	logger.Debug("history request published")

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("await history reply: %w", ctx.Err())
	case reply := <-waiter:
		if reply.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrWorker, reply.Error)
		}
		if reply.Items == nil {
			reply.Items = []entities.HistoryItem{}
		}
		return reply.Items, nil
	}
}
