package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
)

const defaultChannelPrefix = "ecgscan:chat:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisBus relays chat messages between processes over Redis pub/sub and
// hands them to the local hub for delivery.
type RedisBus struct {
	client *redis.Client
	hub    *Hub
	prefix string
	logger logrus.FieldLogger
}

func NewRedisBus(ctx context.Context, options RedisOptions, hub *Hub, logger logrus.FieldLogger) (*RedisBus, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisBus{
		client: client,
		hub:    hub,
		prefix: defaultChannelPrefix,
		logger: logger,
	}, nil
}

func (bus *RedisBus) Publish(ctx context.Context, message models.ChatMessage) error {
	payload, err := encodeMessage(message)
	if err != nil {
		return err
	}
	return bus.client.Publish(ctx, channelName(bus.prefix, message.RecordID), payload).Err()
}

func (bus *RedisBus) Subscribe(recordID string) *Feed {
	return bus.hub.Subscribe(recordID)
}

// Run forwards messages from Redis to the hub until ctx is cancelled.
func (bus *RedisBus) Run(ctx context.Context) error {
	pubsub := bus.client.PSubscribe(ctx, bus.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe chat channels: %w", err)
	}

	incoming := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-incoming:
			if !ok {
				return nil
			}
			message, err := decodeMessage(delivery.Payload)
			if err != nil {
				bus.logger.WithError(err).WithField("channel", delivery.Channel).Warn("dropping malformed chat event")
				continue
			}
			if recordID := recordIDFromChannel(bus.prefix, delivery.Channel); recordID != message.RecordID {
				bus.logger.WithField("channel", delivery.Channel).Warn("dropping chat event published on foreign channel")
				continue
			}
			bus.hub.Deliver(message)
		}
	}
}

func (bus *RedisBus) Close() error {
	return bus.client.Close()
}

func channelName(prefix string, recordID string) string {
	return prefix + recordID
}

func recordIDFromChannel(prefix string, channel string) string {
	return strings.TrimPrefix(channel, prefix)
}

func encodeMessage(message models.ChatMessage) ([]byte, error) {
	message.Sender = nil
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("encode chat event: %w", err)
	}
	return payload, nil
}

func decodeMessage(payload string) (models.ChatMessage, error) {
	var message models.ChatMessage
	if err := json.Unmarshal([]byte(payload), &message); err != nil {
		return models.ChatMessage{}, fmt.Errorf("decode chat event: %w", err)
	}
	if message.ID == "" || message.RecordID == "" {
		return models.ChatMessage{}, fmt.Errorf("decode chat event: missing ids")
	}
	return message, nil
}
