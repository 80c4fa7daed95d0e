package modelstore

import (
	"context"
	"fmt"

	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/predictor"
	bolt "go.etcd.io/bbolt"
)

var _ Store = (*BoltStore)(nil)

var modelsBucket = []byte("models")

// BoltStore keeps the models in the "models" bucket, keyed by kind.
type BoltStore struct {
	db *database.DB
}

func NewBoltStore(db *database.DB) *BoltStore {
	return &BoltStore{db: db}
}

func (s *BoltStore) Load(_ context.Context, kind predictor.Kind) ([]byte, error) {
	var data []byte
	if err := s.db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(modelsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(kind)); v != nil {
			// v is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return data, nil
}

func (s *BoltStore) Save(_ context.Context, kind predictor.Kind, data []byte) error {
	if err := s.db.Bucket(modelsBucket, func(b *bolt.Bucket) error {
		return b.Put([]byte(kind), data)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

// Close leaves the shared bolt handle open; it is owned by the server env.
func (s *BoltStore) Close(context.Context) error {
	return nil
}
