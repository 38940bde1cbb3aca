package store

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/config"
)

// Store saves and loads the current snapshot. Load fails with an error
// matching apperrors.ErrNotFound when nothing has been saved.
type Store interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error)
	Close() error
}

const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// New opens the backend named in cfg.
func New(cfg config.StoreConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path, logger), nil
	case BackendBadger:
		return OpenBadgerStore(cfg.BadgerDir, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
