package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
	"github.com/terraincognita07/ecgscan/internal/realtime"
	"gorm.io/gorm"
)

type ChatMessageRepository interface {
	Append(ctx context.Context, message *models.ChatMessage) error
	ListByRecord(ctx context.Context, recordID string) ([]models.ChatMessage, error)
}

type ChatRecordRepository interface {
	FindByID(ctx context.Context, recordID string) (models.EcgRecord, error)
}

// MessageBroker is satisfied by realtime.Hub and realtime.RedisBus.
type MessageBroker interface {
	Publish(ctx context.Context, message models.ChatMessage) error
	Subscribe(recordID string) *realtime.Feed
}

type ChatService struct {
	messages ChatMessageRepository
	records  ChatRecordRepository
	broker   MessageBroker
	profiles ProfileLookup
	logger   logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

func NewChatService(messages ChatMessageRepository, records ChatRecordRepository, broker MessageBroker, profiles ProfileLookup, logger logrus.FieldLogger) *ChatService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ChatService{
		messages: messages,
		records:  records,
		broker:   broker,
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (service *ChatService) PostMessage(ctx context.Context, identity *Identity, recordID string, body string) (models.ChatMessage, error) {
	if err := RequireIdentity(identity); err != nil {
		return models.ChatMessage{}, err
	}
	text := strings.TrimSpace(body)
	if text == "" {
		return models.ChatMessage{}, NewValidationError("body", "is required")
	}
	if _, err := service.authorizeRecord(ctx, identity, recordID); err != nil {
		return models.ChatMessage{}, err
	}

	message := models.ChatMessage{
		ID:        service.newID(),
		RecordID:  recordID,
		SenderID:  identity.ID,
		Body:      text,
		CreatedAt: service.now(),
	}
	if err := service.messages.Append(ctx, &message); err != nil {
		return models.ChatMessage{}, transportError("append chat message", err)
	}
	service.enrich(ctx, []*models.ChatMessage{&message})

	// The message is stored; a failed publish only delays live viewers
	// until their next history fetch.
	if err := service.broker.Publish(ctx, message); err != nil {
		service.logger.WithError(err).WithFields(logrus.Fields{
			"record_id":  recordID,
			"message_id": message.ID,
		}).Warn("chat publish failed")
	}
	return message, nil
}

// History returns the thread oldest first.
func (service *ChatService) History(ctx context.Context, identity *Identity, recordID string) ([]models.ChatMessage, error) {
	if _, err := service.authorizeRecord(ctx, identity, recordID); err != nil {
		return nil, err
	}

	messages, err := service.messages.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, transportError("list chat messages", err)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})

	refs := make([]*models.ChatMessage, 0, len(messages))
	for index := range messages {
		refs = append(refs, &messages[index])
	}
	service.enrich(ctx, refs)
	return messages, nil
}

// Subscribe opens a live stream of messages appended after the call. The
// backlog is not replayed; fetch History after subscribing and merge both
// through a MessageView.
func (service *ChatService) Subscribe(ctx context.Context, identity *Identity, recordID string) (*Subscription, error) {
	if _, err := service.authorizeRecord(ctx, identity, recordID); err != nil {
		return nil, err
	}

	feed := service.broker.Subscribe(recordID)
	subscriptionCtx, cancel := context.WithCancel(ctx)
	subscription := &Subscription{
		recordID: recordID,
		messages: make(chan models.ChatMessage),
		cancel:   cancel,
		seen:     map[string]struct{}{},
	}
	go subscription.run(subscriptionCtx, feed, service)
	return subscription, nil
}

func (service *ChatService) authorizeRecord(ctx context.Context, identity *Identity, recordID string) (models.EcgRecord, error) {
	if err := RequireIdentity(identity); err != nil {
		return models.EcgRecord{}, err
	}
	record, err := service.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EcgRecord{}, ErrNotFound
		}
		return models.EcgRecord{}, transportError("load record", err)
	}
	if !CanViewRecord(identity, record) {
		return models.EcgRecord{}, ErrUnauthorized
	}
	return record, nil
}

func (service *ChatService) enrich(ctx context.Context, messages []*models.ChatMessage) {
	if len(messages) == 0 || service.profiles == nil {
		return
	}
	ids := make([]string, 0, len(messages))
	for _, message := range messages {
		ids = append(ids, message.SenderID)
	}
	resolved := service.profiles.LookupMany(ctx, ids)
	for _, message := range messages {
		sender := resolved[message.SenderID]
		message.Sender = &sender
	}
}

// Subscription is a live message stream for one record. Each message id is
// delivered at most once over its lifetime.
type Subscription struct {
	recordID string
	messages chan models.ChatMessage
	cancel   context.CancelFunc

	mu   sync.Mutex
	seen map[string]struct{}
}

// Messages is closed once the subscription ends.
func (subscription *Subscription) Messages() <-chan models.ChatMessage {
	return subscription.messages
}

// Close ends the subscription. It is safe before any delivery and safe to
// call repeatedly. A delivery racing Close may still be received once.
func (subscription *Subscription) Close() {
	subscription.cancel()
}

func (subscription *Subscription) run(ctx context.Context, feed *realtime.Feed, service *ChatService) {
	defer close(subscription.messages)
	defer feed.Close()

	for {
		message, err := feed.Next(ctx)
		if err != nil {
			return
		}
		if message.RecordID != subscription.recordID || !subscription.markSeen(message.ID) {
			continue
		}
		if message.Sender == nil {
			service.enrich(ctx, []*models.ChatMessage{&message})
		}

		select {
		case subscription.messages <- message:
		case <-ctx.Done():
			return
		}
	}
}

func (subscription *Subscription) markSeen(messageID string) bool {
	subscription.mu.Lock()
	defer subscription.mu.Unlock()

	if _, duplicate := subscription.seen[messageID]; duplicate {
		return false
	}
	subscription.seen[messageID] = struct{}{}
	return true
}
