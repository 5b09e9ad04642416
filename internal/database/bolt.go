package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	bolt "go.etcd.io/bbolt"
)

var (
	watchlistBucket = []byte("watchlist")
	seenBucket      = []byte("seen")
)

// BoltStore is a single-file durable Store. Every mutation runs in one
// write transaction, so a crash mid-write leaves the previous state intact.
type BoltStore struct {
	db *bolt.DB
}

var _ interfaces.Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the database file and its buckets.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(watchlistBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// scopeKey addresses are base58, so "/" cannot collide.
func scopeKey(scope models.Scope) []byte {
	return []byte(scope.Subscriber + "/" + scope.Address)
}

func (s *BoltStore) AddAddress(_ context.Context, scope models.Scope) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(watchlistBucket)

		var addrs []string
		if raw := b.Get([]byte(scope.Subscriber)); raw != nil {
			if err := json.Unmarshal(raw, &addrs); err != nil {
				return fmt.Errorf("corrupt watchlist entry for %s: %w", scope.Subscriber, err)
			}
		}
		for _, addr := range addrs {
			if addr == scope.Address {
				return nil
			}
		}
		addrs = append(addrs, scope.Address)

		raw, err := json.Marshal(addrs)
		if err != nil {
			return err
		}
		return b.Put([]byte(scope.Subscriber), raw)
	})
}

func (s *BoltStore) RemoveAddress(_ context.Context, scope models.Scope) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(watchlistBucket)

		raw := b.Get([]byte(scope.Subscriber))
		if raw == nil {
			return nil
		}
		var addrs []string
		if err := json.Unmarshal(raw, &addrs); err != nil {
			return fmt.Errorf("corrupt watchlist entry for %s: %w", scope.Subscriber, err)
		}

		kept := addrs[:0]
		for _, addr := range addrs {
			if addr != scope.Address {
				kept = append(kept, addr)
			}
		}

		out, err := json.Marshal(kept)
		if err != nil {
			return err
		}
		return b.Put([]byte(scope.Subscriber), out)
	})
}

func (s *BoltStore) Addresses(_ context.Context, subscriber string) ([]string, error) {
	var addrs []string
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(watchlistBucket).Get([]byte(subscriber))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &addrs)
	})
	return addrs, err
}

func (s *BoltStore) Pairs(_ context.Context) ([]models.Scope, error) {
	var pairs []models.Scope
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(watchlistBucket).ForEach(func(k, v []byte) error {
			var addrs []string
			if err := json.Unmarshal(v, &addrs); err != nil {
				return fmt.Errorf("corrupt watchlist entry for %s: %w", k, err)
			}
			for _, addr := range addrs {
				pairs = append(pairs, models.Scope{Subscriber: string(k), Address: addr})
			}
			return nil
		})
	})
	return pairs, err
}

func (s *BoltStore) SeenRecords(_ context.Context, scope models.Scope) ([]models.SeenRecord, error) {
	var recs []models.SeenRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(seenBucket).Get(scopeKey(scope))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &recs)
	})
	return recs, err
}

func (s *BoltStore) AppendSeen(_ context.Context, scope models.Scope, rec models.SeenRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		key := scopeKey(scope)

		var recs []models.SeenRecord
		if raw := b.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &recs); err != nil {
				return fmt.Errorf("corrupt seen records for %s: %w", scope, err)
			}
		}
		for _, existing := range recs {
			if existing.TxID == rec.TxID {
				return nil
			}
		}
		recs = append(recs, rec)

		raw, err := json.Marshal(recs)
		if err != nil {
			return err
		}
		return b.Put(key, raw)
	})
}

func (s *BoltStore) TrimSeen(_ context.Context, scope models.Scope, keep int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seenBucket)
		key := scopeKey(scope)

		raw := b.Get(key)
		if raw == nil {
			return nil
		}
		var recs []models.SeenRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("corrupt seen records for %s: %w", scope, err)
		}
		if len(recs) <= keep {
			return nil
		}

		sort.Slice(recs, func(i, j int) bool { return recs[i].Sequence < recs[j].Sequence })
		recs = recs[len(recs)-keep:]

		out, err := json.Marshal(recs)
		if err != nil {
			return err
		}
		return b.Put(key, out)
	})
}

func (s *BoltStore) DeleteScope(_ context.Context, scope models.Scope) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(seenBucket).Delete(scopeKey(scope))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
