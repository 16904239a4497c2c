package storage

import (
	"encoding/json"
	"fmt"

	"sports-ai/internal/ml"
	"sports-ai/internal/sport"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

var _ ml.Snapshotter = (*Store)(nil)

func slotKey(s sport.Sport, algo ml.Algorithm) []byte {
	return []byte(fmt.Sprintf("%s_%s", s, algo))
}

// SaveSlot stores a model snapshot, and the active pointer when activate is
// set, in one transaction.
func (s *Store) SaveSlot(snap ml.SlotSnapshot, activate bool) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	blob := s.compress(data)

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(modelsBucket)).Put(slotKey(snap.Sport, snap.Algorithm), blob); err != nil {
			return err
		}
		if activate {
			return tx.Bucket([]byte(activeBucket)).Put([]byte(snap.Sport), []byte(snap.Algorithm))
		}
		return nil
	})
}

// SaveActive stores the active algorithm of a sport.
func (s *Store) SaveActive(sp sport.Sport, algo ml.Algorithm) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(activeBucket)).Put([]byte(sp), []byte(algo))
	})
}

// LoadSlots returns every stored snapshot. Unreadable entries are skipped.
func (s *Store) LoadSlots() ([]ml.SlotSnapshot, error) {
	var snaps []ml.SlotSnapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(modelsBucket)).ForEach(func(k, v []byte) error {
			data, err := s.decompress(v)
			if err != nil {
				log.Warn().Err(err).Str("key", string(k)).Msg("Skipping corrupt model snapshot")
				return nil
			}
			var snap ml.SlotSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				log.Warn().Err(err).Str("key", string(k)).Msg("Skipping malformed model snapshot")
				return nil
			}
			snaps = append(snaps, snap)
			return nil
		})
	})
	return snaps, err
}

// LoadActive returns the stored active algorithm of every sport.
func (s *Store) LoadActive() (map[sport.Sport]ml.Algorithm, error) {
	active := make(map[sport.Sport]ml.Algorithm)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(activeBucket)).ForEach(func(k, v []byte) error {
			active[sport.Sport(k)] = ml.Algorithm(v)
			return nil
		})
	})
	return active, err
}
