package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/apperrors"
)

var (
	keyMeta = []byte("snapshot:current:meta")
	keyBlob = []byte("snapshot:current:blob")
)

// BadgerStore keeps the snapshot payload and its metadata under two keys
// written in one transaction.
type BadgerStore struct {
	db     *badger.DB
	logger *logrus.Logger
}

func OpenBadgerStore(dir string, logger *logrus.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger.WithField("dir", dir).Info("Snapshot store opened")
	return &BadgerStore{db: db, logger: logger}, nil
}

func (b *BadgerStore) Save(s *Snapshot) error {
	blob, err := encode(s)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(s.metadata(checksum(blob)))
	if err != nil {
		return apperrors.Internal(err, "failed to encode snapshot metadata")
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyBlob, blob); err != nil {
			return err
		}
		return txn.Set(keyMeta, meta)
	})
	if err != nil {
		return apperrors.Internal(err, "failed to write snapshot")
	}

	b.logger.WithFields(logrus.Fields{
		"snapshot": s.ID,
		"mode":     s.Mode,
		"bytes":    len(blob),
	}).Info("Snapshot saved")
	return nil
}

func (b *BadgerStore) Load() (*Snapshot, error) {
	var meta Metadata
	var blob []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMeta)
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return err
		}

		item, err = txn.Get(keyBlob)
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, apperrors.NotFound("no snapshot stored")
	}
	if err != nil {
		return nil, apperrors.Parse(err, "failed to read snapshot")
	}

	if sum := checksum(blob); sum != meta.Checksum {
		return nil, apperrors.Parse(nil, "snapshot checksum %s does not match metadata %s", sum, meta.Checksum)
	}
	return decode(blob)
}

// Metadata returns the stored snapshot's summary without decoding the payload.
func (b *BadgerStore) Metadata() (Metadata, error) {
	var meta Metadata
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyMeta)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Metadata{}, apperrors.NotFound("no snapshot stored")
	}
	if err != nil {
		return Metadata{}, apperrors.Parse(err, "failed to read snapshot metadata")
	}
	return meta, nil
}

func (b *BadgerStore) Close() error {
	b.logger.Info("Closing snapshot store")
	return b.db.Close()
}
