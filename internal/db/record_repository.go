package db

import (
	"context"

	"github.com/terraincognita07/ecgscan/internal/models"
	"gorm.io/gorm"
)

type RecordRepository struct {
	database *gorm.DB
}

func NewRecordRepository(database *gorm.DB) *RecordRepository {
	return &RecordRepository{database: database}
}

func (repo *RecordRepository) Create(ctx context.Context, record *models.EcgRecord) error {
	return repo.database.WithContext(ctx).Create(record).Error
}

func (repo *RecordRepository) FindByID(ctx context.Context, recordID string) (models.EcgRecord, error) {
	var record models.EcgRecord
	if err := repo.database.WithContext(ctx).Where("id = ?", recordID).First(&record).Error; err != nil {
		return models.EcgRecord{}, err
	}
	return record, nil
}

func (repo *RecordRepository) ListByUploader(ctx context.Context, uploaderID string) ([]models.EcgRecord, error) {
	records := make([]models.EcgRecord, 0)
	err := repo.database.WithContext(ctx).
		Where("uploader_id = ?", uploaderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	return records, err
}

func (repo *RecordRepository) ListLaudedByPhysician(ctx context.Context, physicianID string) ([]models.EcgRecord, error) {
	records := make([]models.EcgRecord, 0)
	err := repo.database.WithContext(ctx).
		Where("status = ? AND laudation_doctor_id = ?", models.StatusLauded, physicianID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&records).Error
	return records, err
}

// ListVisible returns every record when uploaderID is empty, otherwise only
// the records that user uploaded.
func (repo *RecordRepository) ListVisible(ctx context.Context, uploaderID string) ([]models.EcgRecord, error) {
	records := make([]models.EcgRecord, 0)
	query := repo.database.WithContext(ctx).Model(&models.EcgRecord{})
	if uploaderID != "" {
		query = query.Where("uploader_id = ?", uploaderID)
	}
	err := query.Order("created_at DESC").Order("id DESC").Find(&records).Error
	return records, err
}

// OldestPending returns the first pending record of the class in arrival
// order, or gorm.ErrRecordNotFound when the class is empty.
func (repo *RecordRepository) OldestPending(ctx context.Context, priority models.Priority) (models.EcgRecord, error) {
	var record models.EcgRecord
	err := repo.database.WithContext(ctx).
		Where("status = ? AND priority = ?", models.StatusPending, priority).
		Order("created_at ASC").
		Order("id ASC").
		Limit(1).
		Take(&record).Error
	if err != nil {
		return models.EcgRecord{}, err
	}
	return record, nil
}

func (repo *RecordRepository) CountPending(ctx context.Context, priority models.Priority) (int64, error) {
	var count int64
	err := repo.database.WithContext(ctx).Model(&models.EcgRecord{}).
		Where("status = ? AND priority = ?", models.StatusPending, priority).
		Count(&count).Error
	return count, err
}

// MarkLauded applies laudation only while the record is still pending. The
// returned bool is false when the record was missing or already lauded.
func (repo *RecordRepository) MarkLauded(ctx context.Context, recordID string, laudation models.LaudationUpdate) (bool, error) {
	var details any
	if len(laudation.Details) > 0 {
		details = laudation.Details
	}

	result := repo.database.WithContext(ctx).Model(&models.EcgRecord{}).
		Where("id = ? AND status = ?", recordID, models.StatusPending).
		Updates(map[string]any{
			"status":              models.StatusLauded,
			"laudation_content":   laudation.Content,
			"laudation_doctor_id": laudation.DoctorID,
			"laudation_details":   details,
			"lauded_at":           laudation.LaudedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
