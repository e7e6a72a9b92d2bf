package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
)

type HistoryComputer interface {
	History(ctx context.Context, userID int64, months int) ([]entities.HistoryItem, error)
}

// HistoryServer answers history requests published by HistoryClient.
type HistoryServer struct {
	publisher Publisher
	engine    HistoryComputer
	logger    *zap.Logger
	timeout   time.Duration
}

func NewHistoryServer(publisher Publisher, engine HistoryComputer, timeout time.Duration, logger *zap.Logger) *HistoryServer {
	return &HistoryServer{
		publisher: publisher,
		engine:    engine,
		logger:    logger.With(zap.String("caller", "HistoryServer")),
		timeout:   timeout,
	}
}

// Serve handles every delivery in its own goroutine until ctx is done or
// deliveries is closed.
func (s *HistoryServer) Serve(ctx context.Context, deliveries <-chan amqp.Delivery) {
	s.logger.Info("server is starting")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			go s.Handle(ctx, msg)
		}
	}
}

func (s *HistoryServer) Handle(ctx context.Context, msg amqp.Delivery) {
	var (
		start  = time.Now()
		cid    = msg.CorrelationId
		logger = s.logger.With(zap.String("cid", cid))
	)
	logger.Info("start processing of request")

	var req entities.HistoryRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		logger.Error(fmt.Errorf("decode request: %w", err).Error())
		s.reply(ctx, msg, entities.HistoryReply{Error: "malformed request"}, logger)
		msg.Reject(false)
		return
	}
	if req.Months < 1 {
		s.reply(ctx, msg, entities.HistoryReply{Error: fmt.Sprintf("months must be at least 1, got %d", req.Months)}, logger)
		msg.Reject(false)
		return
	}

	computeCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		computeCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	items, err := s.engine.History(computeCtx, req.UserID, req.Months)
	if err != nil {
		logger.Error(fmt.Errorf("compute history: %w", err).Error())
		s.reply(ctx, msg, entities.HistoryReply{Error: "history calculation failed"}, logger)
		msg.Reject(false)
		return
	}

	if err := s.reply(ctx, msg, entities.HistoryReply{Items: items}, logger); err != nil {
		msg.Nack(false, true)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error(fmt.Errorf("acknowledge request: %w", err).Error())
	}
	logger.Info("finish", zap.Duration("duration", time.Since(start)))
}

func (s *HistoryServer) reply(ctx context.Context, msg amqp.Delivery, reply entities.HistoryReply, logger *zap.Logger) error {
	body, err := json.Marshal(reply)
	if err != nil {
		logger.Error(fmt.Errorf("marshal reply: %w", err).Error())
		return err
	}

	if err := s.publisher.PublishWithContext(ctx,
		"",          // exchange
		msg.ReplyTo, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: msg.CorrelationId,
			Body:          body,
			Priority:      msg.Priority,
		}); err != nil {
		logger.Error(fmt.Errorf("publish reply: %w", err).Error())
		return err
	}

	return nil
}
