package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

func Open(options Options, logger logrus.FieldLogger) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(options.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(options.SQLitePath, logger)
	case DriverPostgres:
		if strings.TrimSpace(options.PostgresDSN) == "" {
			return nil, fmt.Errorf("postgres driver requires DATABASE_URL")
		}
		return OpenPostgres(options.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", options.Driver)
	}
}

func newGormLogger(logger logrus.FieldLogger) gormlogger.Interface {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return gormlogger.New(
		logger.WithField("component", "gorm"),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
