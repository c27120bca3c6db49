package db

import (
	"context"
	"errors"

	"github.com/terraincognita07/ecgscan/internal/models"
	"gorm.io/gorm"
)

// appendSeqAttempts bounds retries when concurrent writers claim the same seq.
const appendSeqAttempts = 8

type MessageRepository struct {
	database *gorm.DB
	nextSeq  func(tx *gorm.DB) (int64, error)
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{database: database, nextSeq: nextMessageSeq}
}

// Append assigns the next global sequence number and inserts message in one
// transaction. A writer that loses the race for a seq sees a duplicate key
// and retries in a fresh transaction with a newly read maximum.
func (repo *MessageRepository) Append(ctx context.Context, message *models.ChatMessage) error {
	var err error
	for attempt := 0; attempt < appendSeqAttempts; attempt++ {
		err = repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			seq, err := repo.nextSeq(tx)
			if err != nil {
				return err
			}
			message.Seq = seq
			return tx.Create(message).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func nextMessageSeq(tx *gorm.DB) (int64, error) {
	var maxSeq int64
	if err := tx.Model(&models.ChatMessage{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (repo *MessageRepository) ListByRecord(ctx context.Context, recordID string) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	err := repo.database.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&messages).Error
	return messages, err
}
