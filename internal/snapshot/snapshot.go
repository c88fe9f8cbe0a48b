// Package snapshot copies the live database into object storage.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"blogpost-api/internal/storage"
)

// Snapshotter writes a consistent copy of the database with VACUUM INTO
// and uploads it under <prefix>/<timestamp>.db.
type Snapshotter struct {
	db     bun.IDB
	store  storage.Service
	bucket string
	prefix string
	logger logrus.FieldLogger
	now    func() time.Time
}

func New(db bun.IDB, store storage.Service, bucket, prefix string, logger logrus.FieldLogger) (*Snapshotter, error) {
	if store == nil || strings.TrimSpace(bucket) == "" {
		return nil, errors.New("snapshot storage bucket is not configured")
	}
	return &Snapshotter{
		db:     db,
		store:  store,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Run takes a snapshot and returns its remote location.
func (s *Snapshotter) Run(ctx context.Context) (string, error) {
	dir, err := os.MkdirTemp("", "blogpost-snapshot-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, "snapshot.db")
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", local); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", local, err)
	}

	key := path.Join(s.prefix, s.now().UTC().Format("20060102T150405Z")+".db")
	location, err := s.store.UploadFile(ctx, local, s.bucket, key)
	if err != nil {
		return "", err
	}

	s.logger.WithField("location", location).Info("database snapshot uploaded")
	return location, nil
}

// List returns the snapshots stored under the configured prefix.
func (s *Snapshotter) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	return s.store.ListObjects(ctx, s.bucket, prefix)
}
