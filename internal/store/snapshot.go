// Package store persists model snapshots. A snapshot is replaced wholesale:
// readers see either the previous complete snapshot or the new one.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/temcen/bookrec/internal/apperrors"
	"github.com/temcen/bookrec/internal/catalog"
	"github.com/temcen/bookrec/internal/features"
)

// SnapshotVersion changes whenever the encoded layout does.
const SnapshotVersion = 1

type Mode string

const (
	ModeFull  Mode = "full"
	ModeBasic Mode = "basic"
)

// Snapshot is everything needed to answer queries without rebuilding.
// Basic snapshots carry no scaler.
type Snapshot struct {
	ID        string
	Version   int
	Mode      Mode
	BuiltAt   time.Time
	Neighbors int

	Books   []catalog.Book
	Columns []string
	Matrix  *features.Matrix
	Scaler  *features.MinMaxScaler
}

// NewSnapshot stamps a fresh id and build time.
func NewSnapshot(mode Mode, cat *catalog.Catalog, matrix *features.Matrix, scaler *features.MinMaxScaler, neighbors int) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Version:   SnapshotVersion,
		Mode:      mode,
		BuiltAt:   time.Now().UTC(),
		Neighbors: neighbors,
		Books:     cat.Books,
		Columns:   cat.Columns,
		Matrix:    matrix,
		Scaler:    scaler,
	}
}

// Catalog restores the preprocessed catalog the snapshot was built from.
func (s *Snapshot) Catalog() *catalog.Catalog {
	return catalog.Restore(s.Books, s.Columns)
}

// Validate checks that the parts of a snapshot agree with each other.
func (s *Snapshot) Validate() error {
	switch {
	case s.Version != SnapshotVersion:
		return apperrors.State("snapshot version %d, want %d", s.Version, SnapshotVersion)
	case len(s.Books) == 0:
		return apperrors.State("snapshot has no books")
	case s.Matrix == nil || s.Matrix.Len() != len(s.Books):
		return apperrors.State("snapshot matrix does not align with its %d books", len(s.Books))
	case s.Mode == ModeFull && (s.Scaler == nil || !s.Scaler.Fitted):
		return apperrors.State("full snapshot has no fitted scaler")
	case s.Scaler != nil && s.Scaler.Width() != s.Matrix.Width():
		return apperrors.State("scaler fit on %d columns but matrix has %d", s.Scaler.Width(), s.Matrix.Width())
	case s.Mode != ModeFull && s.Mode != ModeBasic:
		return apperrors.State("unknown snapshot mode %q", s.Mode)
	}
	return nil
}

// Metadata summarizes a stored snapshot without its payload.
type Metadata struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Mode      Mode      `json:"mode"`
	BuiltAt   time.Time `json:"built_at"`
	Books     int       `json:"books"`
	Features  int       `json:"features"`
	Neighbors int       `json:"neighbors"`
	Checksum  string    `json:"checksum"`
}

func (s *Snapshot) metadata(checksum string) Metadata {
	return Metadata{
		ID:        s.ID,
		Version:   s.Version,
		Mode:      s.Mode,
		BuiltAt:   s.BuiltAt,
		Books:     len(s.Books),
		Features:  s.Matrix.Width(),
		Neighbors: s.Neighbors,
		Checksum:  checksum,
	}
}

// encode uses gob because catalog rows keep NaN for unknown values, which
// JSON cannot represent.
func encode(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, apperrors.Internal(err, "failed to encode snapshot")
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, apperrors.Parse(err, "failed to decode snapshot")
	}
	if s.Matrix != nil {
		s.Matrix = features.NewMatrix(s.Matrix.Names, s.Matrix.Rows)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// checksum fingerprints an encoded payload.
func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))[:16]
}
