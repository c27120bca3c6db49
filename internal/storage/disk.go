package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/terraincognita07/ecgscan/internal/services"
)

// Disk keeps images under a local directory for single-node setups without
// an object store. Files are served by the HTTP layer under publicPrefix.
type Disk struct {
	root         string
	publicPrefix string
	now          func() time.Time
}

func NewDisk(root string, publicPrefix string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Disk{
		root:         root,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		now:          time.Now,
	}, nil
}

func (store *Disk) Root() string {
	return store.root
}

func (store *Disk) PublicPrefix() string {
	return store.publicPrefix
}

func (store *Disk) Store(ctx context.Context, data []byte, contentType string) (services.StoredBlob, error) {
	if err := ctx.Err(); err != nil {
		return services.StoredBlob{}, err
	}

	key, err := newObjectKey(contentType, store.now())
	if err != nil {
		return services.StoredBlob{}, err
	}

	target := filepath.Join(store.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.StoredBlob{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return services.StoredBlob{}, fmt.Errorf("write object %s: %w", key, err)
	}
	return services.StoredBlob{Key: key, URL: path.Join(store.publicPrefix, key)}, nil
}

func (store *Disk) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(store.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
