package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/ecgscan/internal/db"
	"github.com/terraincognita07/ecgscan/internal/models"
	"github.com/terraincognita07/ecgscan/internal/realtime"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubBlobStore struct {
	mu        sync.Mutex
	err       error
	deleteErr error
	stored    []string
	deleted   []string
}

func (stub *stubBlobStore) Store(_ context.Context, data []byte, contentType string) (StoredBlob, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.err != nil {
		return StoredBlob{}, stub.err
	}
	key := "ecg/" + contentType + "/" + string(rune('a'+len(stub.stored)))
	stub.stored = append(stub.stored, key)
	return StoredBlob{Key: key, URL: "http://blobs.local/" + key}, nil
}

func (stub *stubBlobStore) Delete(_ context.Context, key string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()

	if stub.deleteErr != nil {
		return stub.deleteErr
	}
	stub.deleted = append(stub.deleted, key)
	return nil
}

func (stub *stubBlobStore) count() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return len(stub.stored)
}

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

// now advances a millisecond per call so creation order is observable.
func (clock *testClock) now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(time.Millisecond)
	return clock.current
}

type serviceEnv struct {
	repos     *db.Repositories
	profiles  *ProfileDirectory
	blobs     *stubBlobStore
	hub       *realtime.Hub
	records   *RecordService
	queue     *QueueSelector
	laudation *LaudationService
	chat      *ChatService
	auth      *AuthService
	clock     *testClock
}

func quietTestLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ecgscan-services.db"), quietTestLogger())
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := quietTestLogger()
	repos := db.NewRepositories(database)
	profiles := NewProfileDirectory(repos.Users, logger)
	blobs := &stubBlobStore{}
	hub := realtime.NewHub(logger)
	clock := &testClock{current: time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)}

	env := &serviceEnv{
		repos:     repos,
		profiles:  profiles,
		blobs:     blobs,
		hub:       hub,
		records:   NewRecordService(repos.Records, blobs, profiles, logger),
		queue:     NewQueueSelector(repos.Records, profiles),
		laudation: NewLaudationService(repos.Records, logger),
		chat:      NewChatService(repos.Messages, repos.Records, hub, profiles, logger),
		auth:      NewAuthService(repos.Users, profiles),
		clock:     clock,
	}
	env.records.now = clock.now
	env.laudation.now = clock.now
	env.chat.now = clock.now
	return env
}

func (env *serviceEnv) seedUser(t *testing.T, username string, role models.Role) *Identity {
	t.Helper()

	user := models.User{
		ID:           "user-" + username,
		Email:        username + "@ecgscan.local",
		Username:     username,
		AvatarURL:    models.DefaultAvatarURL(username),
		PasswordHash: "unused",
		Role:         role,
		CreatedAt:    env.clock.now(),
	}
	require.NoError(t, env.repos.Users.Create(context.Background(), &user))
	return &Identity{ID: user.ID, Role: role}
}

func validRecordInput(name string, priority models.Priority) CreateRecordInput {
	return CreateRecordInput{
		PatientName:  name,
		Age:          "54",
		Sex:          "Female",
		HasPacemaker: "No",
		Priority:     string(priority),
		Notes:        "chest pain since morning",
	}
}

func pngUpload() ImageUpload {
	return ImageUpload{Data: pngHeader, ContentType: "image/png"}
}

func (env *serviceEnv) createRecord(t *testing.T, nurse *Identity, name string, priority models.Priority) string {
	t.Helper()
	id, err := env.records.CreateRecord(context.Background(), nurse, validRecordInput(name, priority), pngUpload())
	require.NoError(t, err)
	return id
}

type failingRecordRepo struct {
	RecordRepository
	createErr error
}

func (repo *failingRecordRepo) Create(context.Context, *models.EcgRecord) error {
	return repo.createErr
}

var errStoreDown = errors.New("store down")
