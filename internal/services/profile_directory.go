package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/models"
)

type ProfileUserRepository interface {
	FindByIDs(ctx context.Context, userIDs []string) ([]models.User, error)
}

// ProfileLookup resolves public profiles. Misses never fail; they come back
// as the placeholder profile.
type ProfileLookup interface {
	Lookup(ctx context.Context, userID string) models.Profile
	LookupMany(ctx context.Context, userIDs []string) map[string]models.Profile
}

// ProfileDirectory caches profiles for the life of the process. Entries are
// never invalidated; placeholders are not cached so a late registration
// still resolves.
type ProfileDirectory struct {
	users  ProfileUserRepository
	logger logrus.FieldLogger

	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewProfileDirectory(users ProfileUserRepository, logger logrus.FieldLogger) *ProfileDirectory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProfileDirectory{
		users:    users,
		logger:   logger,
		profiles: map[string]models.Profile{},
	}
}

func (directory *ProfileDirectory) Lookup(ctx context.Context, userID string) models.Profile {
	return directory.LookupMany(ctx, []string{userID})[userID]
}

func (directory *ProfileDirectory) LookupMany(ctx context.Context, userIDs []string) map[string]models.Profile {
	result := make(map[string]models.Profile, len(userIDs))
	missing := make([]string, 0)

	directory.mu.RLock()
	for _, userID := range userIDs {
		if _, seen := result[userID]; seen {
			continue
		}
		if profile, ok := directory.profiles[userID]; ok {
			result[userID] = profile
			continue
		}
		result[userID] = models.PlaceholderProfile(userID)
		missing = append(missing, userID)
	}
	directory.mu.RUnlock()

	if len(missing) == 0 {
		return result
	}

	users, err := directory.users.FindByIDs(ctx, missing)
	if err != nil {
		directory.logger.WithError(err).WithField("profiles", len(missing)).Warn("profile lookup failed, using placeholders")
		return result
	}

	directory.mu.Lock()
	for _, user := range users {
		profile := user.Profile()
		directory.profiles[user.ID] = profile
		result[user.ID] = profile
	}
	directory.mu.Unlock()

	return result
}

// Remember seeds the cache, e.g. right after registration.
func (directory *ProfileDirectory) Remember(user models.User) {
	directory.mu.Lock()
	directory.profiles[user.ID] = user.Profile()
	directory.mu.Unlock()
}
