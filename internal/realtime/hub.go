package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
)

var ErrFeedClosed = errors.New("feed closed")

// Hub fans chat messages out to the feeds subscribed on this process.
type Hub struct {
	logger logrus.FieldLogger

	mu    sync.RWMutex
	feeds map[string]map[*Feed]struct{}
}

func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		logger: logger,
		feeds:  map[string]map[*Feed]struct{}{},
	}
}

// Publish delivers in-process. The error return matches the Redis bus.
func (hub *Hub) Publish(_ context.Context, message models.ChatMessage) error {
	hub.Deliver(message)
	return nil
}

// Deliver enqueues message on every open feed for its record. It never
// blocks on a slow consumer.
func (hub *Hub) Deliver(message models.ChatMessage) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for feed := range hub.feeds[message.RecordID] {
		feed.enqueue(message)
	}
}

func (hub *Hub) Subscribe(recordID string) *Feed {
	feed := newFeed(hub, recordID)

	hub.mu.Lock()
	if hub.feeds[recordID] == nil {
		hub.feeds[recordID] = map[*Feed]struct{}{}
	}
	hub.feeds[recordID][feed] = struct{}{}
	total := len(hub.feeds[recordID])
	hub.mu.Unlock()

	hub.logger.WithFields(logrus.Fields{
		"record_id":   recordID,
		"subscribers": total,
	}).Debug("chat feed opened")
	return feed
}

// SubscriberCount reports open feeds for a record.
func (hub *Hub) SubscriberCount(recordID string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.feeds[recordID])
}

func (hub *Hub) remove(feed *Feed) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	feeds := hub.feeds[feed.recordID]
	delete(feeds, feed)
	if len(feeds) == 0 {
		delete(hub.feeds, feed.recordID)
	}
}

// Feed is an unbounded FIFO of messages for one subscriber. The buffered
// signal channel lets Next wait on a context.
type Feed struct {
	hub      *Hub
	recordID string

	mu      sync.Mutex
	pending []models.ChatMessage
	closed  bool
	signal  chan struct{}
	once    sync.Once
}

func newFeed(hub *Hub, recordID string) *Feed {
	return &Feed{
		hub:      hub,
		recordID: recordID,
		pending:  make([]models.ChatMessage, 0, 8),
		signal:   make(chan struct{}, 1),
	}
}

func (feed *Feed) RecordID() string {
	return feed.recordID
}

func (feed *Feed) enqueue(message models.ChatMessage) {
	feed.mu.Lock()
	defer feed.mu.Unlock()

	if feed.closed {
		return
	}
	feed.pending = append(feed.pending, message)
	feed.notify()
}

// notify must be called with feed.mu held.
func (feed *Feed) notify() {
	select {
	case feed.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a message is queued, the feed is closed, or ctx ends.
// Messages queued before Close are dropped.
func (feed *Feed) Next(ctx context.Context) (models.ChatMessage, error) {
	for {
		feed.mu.Lock()
		if feed.closed {
			feed.mu.Unlock()
			return models.ChatMessage{}, ErrFeedClosed
		}
		if len(feed.pending) > 0 {
			message := feed.pending[0]
			feed.pending[0] = models.ChatMessage{}
			feed.pending = feed.pending[1:]
			feed.mu.Unlock()
			return message, nil
		}
		feed.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.ChatMessage{}, ctx.Err()
		case <-feed.signal:
		}
	}
}

// Close detaches the feed from the hub. Safe to call more than once.
func (feed *Feed) Close() {
	feed.once.Do(func() {
		feed.hub.remove(feed)

		feed.mu.Lock()
		feed.closed = true
		feed.pending = nil
		feed.notify()
		feed.mu.Unlock()
	})
}
