package store

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/apperrors"
)

// FileStore keeps the snapshot in a single file, replaced by rename.
type FileStore struct {
	path   string
	logger *logrus.Logger
}

func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Save(s *Snapshot) error {
	data, err := encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Internal(err, "failed to create snapshot directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return apperrors.Internal(err, "failed to create temp snapshot")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Internal(err, "failed to write snapshot")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.Internal(err, "failed to sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Internal(err, "failed to close snapshot")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return apperrors.Internal(err, "failed to move snapshot into place")
	}

	f.logger.WithFields(logrus.Fields{
		"path":     f.path,
		"snapshot": s.ID,
		"mode":     s.Mode,
		"checksum": checksum(data),
	}).Info("Snapshot saved")
	return nil
}

func (f *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("no snapshot at %s", f.path)
		}
		return nil, apperrors.Internal(err, "failed to read snapshot")
	}
	return decode(data)
}

func (f *FileStore) Close() error { return nil }
