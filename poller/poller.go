package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/glbter/distributed-systems/portfolio-analytics/entities"
	"github.com/glbter/distributed-systems/portfolio-analytics/metrics"
)

const (
	DefaultSchedule = "@every 10s"
	MessageType     = "price.update"
)

type OpenPositions interface {
	OpenTickersByUser(ctx context.Context) (map[int64][]string, error)
}

type Quoter interface {
	LiveQuotes(ctx context.Context, symbols []string) ([]entities.Quote, error)
}

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Poller periodically pushes quotes of every user's open lots to a topic
// exchange, one message per user.
type Poller struct {
	positions OpenPositions
	quoter    Quoter
	publisher Publisher
	exchange  string
	metrics   *metrics.Metrics
	logger    *zap.Logger

	cron *cron.Cron
	ctx  context.Context
}

func New(positions OpenPositions, quoter Quoter, publisher Publisher, exchange string, m *metrics.Metrics, logger *zap.Logger) *Poller {
	return &Poller{
		positions: positions,
		quoter:    quoter,
		publisher: publisher,
		exchange:  exchange,
		metrics:   m,
		logger:    logger.With(zap.String("caller", "Poller")),
		cron:      cron.New(),
	}
}

func RoutingKey(userID int64) string {
	return fmt.Sprintf("user.%d", userID)
}

// Start registers the poll job on schedule and starts the scheduler. Jobs
// run with ctx; Stop must be called to release the scheduler.
func (p *Poller) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	p.ctx = ctx

	if _, err := p.cron.AddFunc(schedule, func() { p.Poll(p.ctx) }); err != nil {
		return fmt.Errorf("register poll job %q: %w", schedule, err)
	}

	p.cron.Start()
	p.logger.Info("poller started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running poll to finish.
func (p *Poller) Stop() {
	<-p.cron.Stop().Done()
	p.logger.Info("poller stopped")
}

// Poll runs one round. A failing user is logged and does not stop the round.
func (p *Poller) Poll(ctx context.Context) {
	start := time.Now()
	logger := p.logger.With(zap.String("method", "Poll"))

	byUser, err := p.positions.OpenTickersByUser(ctx)
	if err != nil {
		logger.Error(fmt.Errorf("get open tickers: %w", err).Error())
		return
	}

	users := make([]int64, 0, len(byUser))
	for id := range byUser {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}

		err := p.pushUser(ctx, userID, byUser[userID])
		if err != nil {
			logger.Warn(err.Error(), zap.Int64("userId", userID))
		}
	}

	logger.Debug("finish poll", zap.Int("users", len(users)), zap.Duration("duration", time.Since(start)))
}

func (p *Poller) pushUser(ctx context.Context, userID int64, tickers []string) error {
	if len(tickers) == 0 {
		return nil
	}

	quotes, err := p.quoter.LiveQuotes(ctx, tickers)
	if err != nil {
		return fmt.Errorf("get quotes: %w", err)
	}
	if len(quotes) == 0 {
		return nil
	}

	body, err := json.Marshal(entities.QuoteUpdates(quotes))
	if err != nil {
		return fmt.Errorf("marshal updates: %w", err)
	}

	err = p.publisher.PublishWithContext(ctx,
		p.exchange,         // exchange
		RoutingKey(userID), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Type:        MessageType,
			Timestamp:   time.Now(),
			Body:        body,
		})
	p.metrics.Published(err)
	if err != nil {
		return fmt.Errorf("publish updates: %w", err)
	}

	return nil
}
