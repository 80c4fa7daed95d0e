package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-sod/vtml/internal/alert/model"
	"github.com/go-sod/vtml/internal/database"
	bolt "go.etcd.io/bbolt"
)

var alertsBucket = []byte("alerts")

type FilterFn func(alert model.Alert) bool

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

// DB keeps undelivered alerts across restarts, keyed by alert id.
type DB struct {
	sDB *database.DB
}

func (db *DB) Store(_ context.Context, alert model.Alert) error {
	bytes, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := db.sDB.Bucket(alertsBucket, func(b *bolt.Bucket) error {
		return b.Put([]byte(alert.ID.String()), bytes)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) Delete(_ context.Context, alert model.Alert) error {
	if err := db.sDB.Bucket(alertsBucket, func(b *bolt.Bucket) error {
		return b.Delete([]byte(alert.ID.String()))
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}
	return nil
}

func (db *DB) FindAll(_ context.Context, filter FilterFn) ([]model.Alert, error) {
	var alerts []model.Alert
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(alertsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var a model.Alert
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("alert unmarshal error: %w", err)
			}
			if filter == nil || filter(a) {
				alerts = append(alerts, a)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}
	return alerts, nil
}
