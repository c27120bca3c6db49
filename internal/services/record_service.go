package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
	"gorm.io/gorm"
)

type RecordRepository interface {
	Create(ctx context.Context, record *models.EcgRecord) error
	FindByID(ctx context.Context, recordID string) (models.EcgRecord, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]models.EcgRecord, error)
	ListLaudedByPhysician(ctx context.Context, physicianID string) ([]models.EcgRecord, error)
	ListVisible(ctx context.Context, uploaderID string) ([]models.EcgRecord, error)
}

// StoredBlob is where an uploaded image ended up.
type StoredBlob struct {
	Key string
	URL string
}

type BlobStore interface {
	Store(ctx context.Context, data []byte, contentType string) (StoredBlob, error)
	Delete(ctx context.Context, key string) error
}

type CreateRecordInput struct {
	PatientName  string
	Age          string
	Sex          string
	HasPacemaker string
	Priority     string
	Notes        string
}

type ImageUpload struct {
	Data        []byte
	ContentType string
}

type RecordService struct {
	records  RecordRepository
	blobs    BlobStore
	profiles ProfileLookup
	logger   logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

func NewRecordService(records RecordRepository, blobs BlobStore, profiles ProfileLookup, logger logrus.FieldLogger) *RecordService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RecordService{
		records:  records,
		blobs:    blobs,
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// CreateRecord uploads the image first and writes the document only after the
// upload succeeded. After a failed document write the blob is removed on a
// best-effort basis; if that fails too it is logged and left behind.
func (service *RecordService) CreateRecord(ctx context.Context, identity *Identity, input CreateRecordInput, image ImageUpload) (string, error) {
	if err := RequireRole(identity, models.RoleNurse); err != nil {
		return "", err
	}

	record, contentType, err := buildPendingRecord(input, image)
	if err != nil {
		return "", err
	}

	blob, err := service.blobs.Store(ctx, image.Data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	record.ID = service.newID()
	record.ImageURL = blob.URL
	record.ImageKey = blob.Key
	record.UploaderID = identity.ID
	record.CreatedAt = service.now()

	if err := service.records.Create(ctx, &record); err != nil {
		service.discardBlob(ctx, blob.Key, identity.ID)
		return "", transportError("create record", err)
	}

	service.logger.WithFields(logrus.Fields{
		"record_id": record.ID,
		"priority":  record.Priority,
	}).Info("record created")
	return record.ID, nil
}

func (service *RecordService) discardBlob(ctx context.Context, key string, uploaderID string) {
	if err := service.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		service.logger.WithError(err).WithFields(logrus.Fields{
			"image_key":   key,
			"uploader_id": uploaderID,
		}).Warn("record write failed after image upload, blob orphaned")
	}
}

func buildPendingRecord(input CreateRecordInput, image ImageUpload) (models.EcgRecord, string, error) {
	patientName := strings.TrimSpace(input.PatientName)
	if patientName == "" {
		return models.EcgRecord{}, "", NewValidationError("patient_name", "is required")
	}

	rawAge := strings.TrimSpace(input.Age)
	if rawAge == "" {
		return models.EcgRecord{}, "", NewValidationError("age", "is required")
	}
	age, err := strconv.Atoi(rawAge)
	if err != nil || age < 0 {
		return models.EcgRecord{}, "", NewValidationError("age", "must be a non-negative integer")
	}

	sex, ok := models.ParseSex(input.Sex)
	if !ok {
		return models.EcgRecord{}, "", NewValidationError("sex", "must be Male or Female")
	}
	pacemaker, ok := models.ParsePacemaker(input.HasPacemaker)
	if !ok {
		return models.EcgRecord{}, "", NewValidationError("has_pacemaker", "must be Yes or No")
	}
	priority, ok := models.ParsePriority(input.Priority)
	if !ok {
		return models.EcgRecord{}, "", NewValidationError("priority", "must be Urgent or Elective")
	}

	if len(image.Data) == 0 {
		return models.EcgRecord{}, "", NewValidationError("image", "is required")
	}
	contentType := strings.TrimSpace(image.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(image.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return models.EcgRecord{}, "", NewValidationError("image", "must be an image")
	}

	return models.EcgRecord{
		PatientName:  patientName,
		Age:          age,
		Sex:          sex,
		HasPacemaker: pacemaker,
		Priority:     priority,
		Notes:        strings.TrimSpace(input.Notes),
		Status:       models.StatusPending,
	}, contentType, nil
}

func (service *RecordService) GetByID(ctx context.Context, recordID string) (models.EcgRecord, error) {
	record, err := service.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EcgRecord{}, ErrNotFound
		}
		return models.EcgRecord{}, transportError("load record", err)
	}
	enriched := []models.EcgRecord{record}
	service.enrich(ctx, enriched)
	return enriched[0], nil
}

// GetForViewer is GetByID plus the record access policy.
func (service *RecordService) GetForViewer(ctx context.Context, identity *Identity, recordID string) (models.EcgRecord, error) {
	if err := RequireIdentity(identity); err != nil {
		return models.EcgRecord{}, err
	}
	record, err := service.GetByID(ctx, recordID)
	if err != nil {
		return models.EcgRecord{}, err
	}
	if !CanViewRecord(identity, record) {
		return models.EcgRecord{}, ErrUnauthorized
	}
	return record, nil
}

func (service *RecordService) ListByUploader(ctx context.Context, uploaderID string) ([]models.EcgRecord, error) {
	records, err := service.records.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, transportError("list uploader records", err)
	}
	service.enrich(ctx, records)
	return records, nil
}

func (service *RecordService) ListByPhysician(ctx context.Context, physicianID string) ([]models.EcgRecord, error) {
	records, err := service.records.ListLaudedByPhysician(ctx, physicianID)
	if err != nil {
		return nil, transportError("list physician records", err)
	}
	service.enrich(ctx, records)
	return records, nil
}

// ListMine dispatches on the caller's role.
func (service *RecordService) ListMine(ctx context.Context, identity *Identity) ([]models.EcgRecord, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	listing, ok := recordListingsByRole[identity.Role]
	if !ok {
		return nil, ErrUnauthorized
	}
	return listing(service, ctx, identity.ID)
}

// Search matches query against patient names ignoring case and accents,
// within the records the caller may see.
func (service *RecordService) Search(ctx context.Context, identity *Identity, query string) ([]models.EcgRecord, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	needle := NormalizeSearchText(query)
	if needle == "" {
		return nil, NewValidationError("q", "is required")
	}

	scope, ok := searchScopesByRole[identity.Role]
	if !ok {
		return nil, ErrUnauthorized
	}
	candidates, err := service.records.ListVisible(ctx, scope(identity))
	if err != nil {
		return nil, transportError("search records", err)
	}

	matches := make([]models.EcgRecord, 0)
	for _, record := range candidates {
		if strings.Contains(NormalizeSearchText(record.PatientName), needle) {
			matches = append(matches, record)
		}
	}
	service.enrich(ctx, matches)
	return matches, nil
}

func (service *RecordService) enrich(ctx context.Context, records []models.EcgRecord) {
	if len(records) == 0 || service.profiles == nil {
		return
	}
	EnrichRecords(ctx, service.profiles, records)
}

// EnrichRecords attaches uploader and, for lauded records, physician profiles.
func EnrichRecords(ctx context.Context, profiles ProfileLookup, records []models.EcgRecord) {
	ids := make([]string, 0, len(records)*2)
	for _, record := range records {
		ids = append(ids, record.UploaderID)
		if record.LaudationDoctorID != nil {
			ids = append(ids, *record.LaudationDoctorID)
		}
	}
	resolved := profiles.LookupMany(ctx, ids)

	for index := range records {
		uploader := resolved[records[index].UploaderID]
		records[index].Uploader = &uploader
		if records[index].LaudationDoctorID != nil {
			doctor := resolved[*records[index].LaudationDoctorID]
			records[index].LaudationDoctor = &doctor
		}
	}
}
