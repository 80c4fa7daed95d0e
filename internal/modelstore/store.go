// Package modelstore persists fitted models and keeps the current model of
// every kind in memory.
package modelstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-xdr/xdr2"
	"github.com/go-sod/vtml/internal/predictor"
)

// ErrNotFound is returned by Store.Load when nothing was saved for a kind yet.
var ErrNotFound = errors.New("model state not found")

// Store keeps one serialized model per kind. Save overwrites unconditionally.
type Store interface {
	Load(ctx context.Context, kind predictor.Kind) ([]byte, error)
	Save(ctx context.Context, kind predictor.Kind, data []byte) error
	Close(ctx context.Context) error
}

type envelope struct {
	Kind      string
	Algorithm string
	Payload   []byte
}

// Encode wraps the model payload with its kind and algorithm tag.
func Encode(m predictor.Model) ([]byte, error) {
	payload, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal %s model: %w", m.Kind(), err)
	}
	var buf bytes.Buffer
	e := envelope{Kind: string(m.Kind()), Algorithm: string(m.Algorithm()), Payload: payload}
	if _, err := xdr.Marshal(&buf, &e); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &e); err != nil {
		return envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}
