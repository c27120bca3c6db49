package services

import (
	"context"

	"github.com/terraincognita07/ecgscan/internal/models"
)

type recordListing func(service *RecordService, ctx context.Context, userID string) ([]models.EcgRecord, error)

var recordListingsByRole = map[models.Role]recordListing{
	models.RoleNurse:     (*RecordService).ListByUploader,
	models.RolePhysician: (*RecordService).ListByPhysician,
}

// searchScopesByRole returns the uploader filter; empty means every record.
var searchScopesByRole = map[models.Role]func(identity *Identity) string{
	models.RoleNurse:     func(identity *Identity) string { return identity.ID },
	models.RolePhysician: func(*Identity) string { return "" },
}

var recordAccessByRole = map[models.Role]func(identity *Identity, record models.EcgRecord) bool{
	models.RoleNurse: func(identity *Identity, record models.EcgRecord) bool {
		return record.UploaderID == identity.ID
	},
	models.RolePhysician: func(*Identity, models.EcgRecord) bool { return true },
}

// CanViewRecord covers reading a record and reading or writing its chat.
func CanViewRecord(identity *Identity, record models.EcgRecord) bool {
	if RequireIdentity(identity) != nil {
		return false
	}
	allowed, ok := recordAccessByRole[identity.Role]
	return ok && allowed(identity, record)
}
