package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sports-ai/internal/features"
	"sports-ai/internal/sport"

	"go.etcd.io/bbolt"
)

func matchPrefix(s sport.Sport) []byte {
	return []byte(string(s) + "_")
}

func matchKey(s sport.Sport, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", s, seq))
}

// ReplaceMatches swaps the stored dataset of a sport for records.
func (s *Store) ReplaceMatches(sp sport.Sport, records []features.MatchRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(matchesBucket))
		if err := deletePrefix(b, matchPrefix(sp)); err != nil {
			return err
		}
		return putMatches(b, sp, records)
	})
}

// AppendMatches adds records after the stored dataset of a sport.
func (s *Store) AppendMatches(sp sport.Sport, records []features.MatchRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putMatches(tx.Bucket([]byte(matchesBucket)), sp, records)
	})
}

// GetMatches returns the stored dataset of a sport in insertion order.
func (s *Store) GetMatches(sp sport.Sport) ([]features.MatchRecord, error) {
	var records []features.MatchRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(matchesBucket)).Cursor()
		prefix := matchPrefix(sp)
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec features.MatchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal match %s: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// CountMatches returns the size of the stored dataset of a sport.
func (s *Store) CountMatches(sp sport.Sport) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(matchesBucket)).Cursor()
		prefix := matchPrefix(sp)
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func putMatches(b *bbolt.Bucket, sp sport.Sport, records []features.MatchRecord) error {
	for _, rec := range records {
		rec.Sport = sp
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal match: %w", err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(matchKey(sp, seq), data); err != nil {
			return err
		}
	}
	return nil
}

func deletePrefix(b *bbolt.Bucket, prefix []byte) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
