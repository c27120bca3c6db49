package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LaudationRecordRepository interface {
	FindByID(ctx context.Context, recordID string) (models.EcgRecord, error)
	MarkLauded(ctx context.Context, recordID string, laudation models.LaudationUpdate) (bool, error)
}

type LaudationService struct {
	records LaudationRecordRepository
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewLaudationService(records LaudationRecordRepository, logger logrus.FieldLogger) *LaudationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LaudationService{
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SubmitLaudation moves a pending record to lauded. The store re-checks the
// pending status in the same UPDATE, so a concurrent or repeated submission
// gets ErrInvalidState and never overwrites the first one.
func (service *LaudationService) SubmitLaudation(ctx context.Context, identity *Identity, recordID string, reportText string, details *models.LaudationDetails) (models.EcgRecord, error) {
	if err := RequireRole(identity, models.RolePhysician); err != nil {
		return models.EcgRecord{}, err
	}

	content := strings.TrimSpace(reportText)
	if content == "" {
		return models.EcgRecord{}, NewValidationError("report", "is required")
	}

	record, err := service.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EcgRecord{}, ErrNotFound
		}
		return models.EcgRecord{}, transportError("load record", err)
	}
	if !record.IsPending() {
		return models.EcgRecord{}, ErrInvalidState
	}

	snapshot, err := encodeLaudationDetails(details)
	if err != nil {
		return models.EcgRecord{}, NewValidationError("details", err.Error())
	}

	update := models.LaudationUpdate{
		Content:  content,
		DoctorID: identity.ID,
		Details:  snapshot,
		LaudedAt: service.now(),
	}
	applied, err := service.records.MarkLauded(ctx, recordID, update)
	if err != nil {
		return models.EcgRecord{}, transportError("apply laudation", err)
	}
	if !applied {
		service.logger.WithFields(logrus.Fields{
			"record_id":    recordID,
			"physician_id": identity.ID,
		}).Info("laudation rejected, record no longer pending")
		return models.EcgRecord{}, ErrInvalidState
	}

	record.Status = models.StatusLauded
	record.LaudationContent = &update.Content
	record.LaudationDoctorID = &update.DoctorID
	record.LaudationDetails = update.Details
	record.LaudedAt = &update.LaudedAt

	service.logger.WithFields(logrus.Fields{
		"record_id":    recordID,
		"physician_id": identity.ID,
		"priority":     record.Priority,
	}).Info("record lauded")
	return record, nil
}

func encodeLaudationDetails(details *models.LaudationDetails) (datatypes.JSON, error) {
	if details == nil {
		return nil, nil
	}
	normalized := details.Normalized()
	if normalized == (models.LaudationDetails{}) {
		return nil, nil
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}
