package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/TechmatesTeam/koroh-sub002/internal/event"
	"github.com/TechmatesTeam/koroh-sub002/internal/gateway/domain"
	"github.com/TechmatesTeam/koroh-sub002/shared/rabbitmq"
)

// NotificationStore persists updates as notification history
type NotificationStore interface {
	SaveNotification(ctx context.Context, n *domain.Notification) error
}

// ConsumerConfig holds consumer dependencies and settings
type ConsumerConfig struct {
	Logger       *slog.Logger
	RabbitClient *rabbitmq.Client
	Hub          *Hub
	Store        NotificationStore
	ConsumerTag  string
	DefaultScope string
}

// Consumer drains backend update messages from RabbitMQ, persists them, and
// publishes them to the hub for realtime delivery
type Consumer struct {
	logger       *slog.Logger
	rabbitClient *rabbitmq.Client
	hub          *Hub
	store        NotificationStore
	consumerTag  string
	defaultScope string
}

// NewConsumer creates a consumer instance
func NewConsumer(cfg *ConsumerConfig) *Consumer {
	defaultScope := cfg.DefaultScope
	if defaultScope == "" {
		defaultScope = "dashboard"
	}

	return &Consumer{
		logger:       cfg.Logger,
		rabbitClient: cfg.RabbitClient,
		hub:          cfg.Hub,
		store:        cfg.Store,
		consumerTag:  cfg.ConsumerTag,
		defaultScope: defaultScope,
	}
}

// Run consumes update messages until the context is canceled or the
// delivery channel closes
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.rabbitClient.Consume(c.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Update consumer started",
		slog.String("consumer_tag", c.consumerTag),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Update consumer stopped - context canceled")
			return nil

		case amqpErr := <-c.rabbitClient.NotifyClose():
			return fmt.Errorf("rabbitmq channel closed: %v", amqpErr)

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("RabbitMQ delivery channel closed")
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery processes one message and acks or nacks it by error class
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	err := c.process(ctx, delivery.RoutingKey, delivery.Body)
	if err == nil {
		if ackErr := delivery.Ack(false); ackErr != nil {
			c.logger.Error("Failed to ACK message",
				slog.String("error", ackErr.Error()),
			)
		}
		return
	}

	requeue := c.shouldRequeue(err)
	c.logger.Error("Failed to process update message",
		slog.String("routing_key", delivery.RoutingKey),
		slog.Bool("requeue", requeue),
		slog.String("error", err.Error()),
	)

	if nackErr := delivery.Nack(false, requeue); nackErr != nil {
		c.logger.Error("Failed to NACK message",
			slog.String("error", nackErr.Error()),
		)
	}
}

// process decodes the wire envelope, persists each resulting event, and
// fans it out to subscribed clients
func (c *Consumer) process(ctx context.Context, routingKey string, body []byte) error {
	scope := c.scopeFromRoutingKey(routingKey)

	events, err := event.ParseInbound(scope, body)
	if err != nil {
		// Malformed messages never recover on redelivery
		return fmt.Errorf("%w: %v", domain.ErrMalformedUpdate, err)
	}

	for _, evt := range events {
		n := &domain.Notification{
			ID:        evt.ID,
			Scope:     evt.Scope,
			EventType: string(evt.Type),
			Payload:   string(evt.Payload),
			CreatedAt: evt.ReceivedAt,
		}
		if err := c.store.SaveNotification(ctx, n); err != nil {
			// Storage trouble is assumed transient
			return domain.NewRetryableError(err)
		}

		delivered := c.hub.Publish(evt)
		c.logger.Debug("Update published",
			slog.String("event_id", evt.ID),
			slog.String("event_type", string(evt.Type)),
			slog.String("scope", evt.Scope),
			slog.Int("delivered", delivered),
		)
	}

	return nil
}

// shouldRequeue determines if a message should be redelivered based on the
// error type
func (c *Consumer) shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrMalformedUpdate) {
		return false
	}

	var retryableErr *domain.RetryableError
	if errors.As(err, &retryableErr) {
		return true
	}

	return false
}

// scopeFromRoutingKey maps a routing key like "updates.dashboard" to its
// scope segment
func (c *Consumer) scopeFromRoutingKey(routingKey string) string {
	if idx := strings.LastIndex(routingKey, "."); idx >= 0 && idx < len(routingKey)-1 {
		return routingKey[idx+1:]
	}
	return c.defaultScope
}
