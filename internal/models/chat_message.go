package models

import "time"

// ChatMessage is never mutated or deleted after creation.
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Seq       int64     `gorm:"not null;uniqueIndex" json:"seq"`
	RecordID  string    `gorm:"type:varchar(36);not null;index:idx_messages_record,priority:1" json:"record_id"`
	SenderID  string    `gorm:"type:varchar(36);not null" json:"sender_id"`
	Body      string    `gorm:"not null" json:"body"`
	CreatedAt time.Time `gorm:"not null;index:idx_messages_record,priority:2" json:"created_at"`

	Sender *Profile `gorm:"-" json:"sender,omitempty"`
}

func (ChatMessage) TableName() string {
	return "messages"
}

// Before reports whether message sorts ahead of other in a chat thread.
func (message ChatMessage) Before(other ChatMessage) bool {
	if !message.CreatedAt.Equal(other.CreatedAt) {
		return message.CreatedAt.Before(other.CreatedAt)
	}
	if message.Seq != other.Seq {
		return message.Seq < other.Seq
	}
	return message.ID < other.ID
}
