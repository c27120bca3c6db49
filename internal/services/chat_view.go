package services

import (
	"sort"

	"github.com/terraincognita07/ecgscan/internal/models"
)

// MessageView is the consumer-side merge of history and live deliveries.
// It keeps one copy per message id, sorted by creation time whatever order
// messages arrived in.
type MessageView struct {
	seen     map[string]struct{}
	messages []models.ChatMessage
}

func NewMessageView() *MessageView {
	return &MessageView{seen: map[string]struct{}{}}
}

func (view *MessageView) Seed(history []models.ChatMessage) {
	for _, message := range history {
		view.Merge(message)
	}
}

// Merge reports false when the id was already in the view.
func (view *MessageView) Merge(message models.ChatMessage) bool {
	if _, duplicate := view.seen[message.ID]; duplicate {
		return false
	}
	view.seen[message.ID] = struct{}{}

	position := sort.Search(len(view.messages), func(index int) bool {
		return message.Before(view.messages[index])
	})
	view.messages = append(view.messages, models.ChatMessage{})
	copy(view.messages[position+1:], view.messages[position:])
	view.messages[position] = message
	return true
}

func (view *MessageView) Messages() []models.ChatMessage {
	result := make([]models.ChatMessage, len(view.messages))
	copy(result, view.messages)
	return result
}

func (view *MessageView) Len() int {
	return len(view.messages)
}
