package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/TechmatesTeam/koroh-sub002/internal/config"
	"github.com/TechmatesTeam/koroh-sub002/shared/logger"
	"github.com/TechmatesTeam/koroh-sub002/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("REALTIME_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/realtime-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	messageType := flag.String("type", "job_recommendation_update", "Wire message type to publish")
	scope := flag.String("scope", "dashboard", "Target scope, becomes the routing key suffix")
	count := flag.Int("count", 1, "Number of messages to publish")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between messages")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger := logger.New(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stdout",
		NoColor:    cfg.Logging.NoColor,
		TimeFormat: time.Kitchen,
	})

	rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:            cfg.RabbitMQ.Host,
		Port:            cfg.RabbitMQ.Port,
		User:            cfg.RabbitMQ.User,
		Password:        cfg.RabbitMQ.Password,
		VHost:           cfg.RabbitMQ.VHost,
		ExchangeName:    cfg.RabbitMQ.Exchange.Name,
		ExchangeType:    cfg.RabbitMQ.Exchange.Type,
		ExchangeDurable: cfg.RabbitMQ.Exchange.Durable,
		QueueName:       cfg.RabbitMQ.Queue.Name,
		QueueDurable:    cfg.RabbitMQ.Queue.Durable,
		QueueAutoDelete: cfg.RabbitMQ.Queue.AutoDelete,
		RoutingKey:      cfg.RabbitMQ.RoutingKey,
		RetryAttempts:   cfg.RabbitMQ.Connection.RetryAttempts,
		RetryInterval:   cfg.RabbitMQ.Connection.RetryInterval,
		Heartbeat:       cfg.RabbitMQ.Connection.Heartbeat,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	body, err := sampleMessage(*messageType)
	if err != nil {
		return err
	}

	routingKey := fmt.Sprintf("updates.%s", *scope)
	ctx := context.Background()

	for i := 0; i < *count; i++ {
		if i > 0 {
			time.Sleep(*interval)
		}
		if err := rabbitClient.Publish(ctx, routingKey, body); err != nil {
			return fmt.Errorf("failed to publish message %d: %w", i+1, err)
		}
		appLogger.Info("Published update message",
			slog.String("type", *messageType),
			slog.String("routing_key", routingKey),
			slog.Int("sequence", i+1),
		)
	}

	return nil
}

// sampleMessage builds a representative wire payload for the given type
func sampleMessage(messageType string) ([]byte, error) {
	switch messageType {
	case "job_recommendation_update":
		return json.Marshal(map[string]any{
			"type": messageType,
			"recommendations": []map[string]any{
				{
					"job_id":      uuid.New().String(),
					"title":       "Senior Backend Engineer",
					"company":     "Koroh",
					"location":    "Remote",
					"match_score": 0.92,
				},
				{
					"job_id":      uuid.New().String(),
					"title":       "Platform Engineer",
					"company":     "Koroh",
					"location":    "Berlin",
					"match_score": 0.81,
				},
			},
		})

	case "company_job_posted":
		return json.Marshal(map[string]any{
			"type": messageType,
			"company": map[string]any{
				"id":   uuid.New().String(),
				"name": "Koroh",
			},
			"job": map[string]any{
				"id":       uuid.New().String(),
				"title":    "Data Engineer",
				"location": "Amsterdam",
			},
		})

	case "profile_updated":
		return json.Marshal(map[string]any{
			"type": messageType,
			"profile": map[string]any{
				"user_id":   uuid.New().String(),
				"field":     "headline",
				"new_value": "Senior Backend Engineer at Koroh",
			},
		})

	case "dashboard_refresh":
		return json.Marshal(map[string]any{
			"type": messageType,
		})
	}

	return nil, fmt.Errorf("unsupported message type %q", messageType)
}
