// Package storage provides persistent storage for the prediction service. It
// uses BoltDB to keep model snapshots, the active model of each sport and the
// stored match datasets.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"
)

// DBFile is the database file name inside the data path.
const DBFile = "sports-ai.db"

const (
	modelsBucket  = "models"  // <sport>_<algorithm> -> zstd JSON snapshot
	activeBucket  = "active"  // <sport> -> algorithm
	matchesBucket = "matches" // <sport>_<seq> -> match record JSON
)

// Store provides persistent storage using BoltDB.
type Store struct {
	db  *bbolt.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New opens (or creates) the database in dataPath and ensures every bucket
// exists.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{modelsBucket, activeBucket, matchesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.enc != nil {
		s.enc.Close()
		s.enc = nil
	}
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) compress(data []byte) []byte {
	return s.enc.EncodeAll(data, make([]byte, 0, len(data)/4))
}

func (s *Store) decompress(data []byte) ([]byte, error) {
	return s.dec.DecodeAll(data, nil)
}
