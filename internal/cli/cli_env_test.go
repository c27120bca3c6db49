package cli

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/ecgscan/internal/config"
	"github.com/terraincognita07/ecgscan/internal/services"
	"gorm.io/gorm"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "ecgscan-cli.db"),
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func openTestAuth(t *testing.T) (*gorm.DB, *services.AuthService) {
	t.Helper()

	database, err := OpenDatabase(testConfig(t), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { closeDatabase(database) })
	return database, newAuthService(database, quietLogger())
}
