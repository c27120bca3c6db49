package api

import (
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/db"
	"github.com/terraincognita07/ecgscan/internal/i18n"
	"github.com/terraincognita07/ecgscan/internal/services"
	"gorm.io/gorm"
)

// Dependencies is the service graph the HTTP layer talks to.
type Dependencies struct {
	Auth      *services.AuthService
	Records   *services.RecordService
	Queue     *services.QueueSelector
	Laudation *services.LaudationService
	Chat      *services.ChatService
	Reports   *services.ReportComposer
	I18n      *i18n.Manager
	Logger    logrus.FieldLogger
}

// BuildDependencies wires repositories and services over one database. All
// services share a single profile directory so its cache is reused.
func BuildDependencies(database *gorm.DB, blobs services.BlobStore, broker services.MessageBroker, translations *i18n.Manager, logger logrus.FieldLogger) Dependencies {
	repositories := db.NewRepositories(database)
	profiles := services.NewProfileDirectory(repositories.Users, logger)

	return Dependencies{
		Auth:      services.NewAuthService(repositories.Users, profiles),
		Records:   services.NewRecordService(repositories.Records, blobs, profiles, logger),
		Queue:     services.NewQueueSelector(repositories.Records, profiles),
		Laudation: services.NewLaudationService(repositories.Records, logger),
		Chat:      services.NewChatService(repositories.Messages, repositories.Records, broker, profiles, logger),
		Reports:   services.NewReportComposer(translations),
		I18n:      translations,
		Logger:    logger,
	}
}
