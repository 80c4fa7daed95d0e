package predictor

import (
	"context"
	"encoding"
)

// Kind names a model slot owned by the service. Each kind is persisted
// separately and holds exactly one model at a time.
type Kind string

const (
	KindAnomaly Kind = "anomaly"
	KindRoute   Kind = "route"
)

func (k Kind) String() string {
	return string(k)
}

// Model is the capability every persisted model variant has. The algorithm tag
// selects the decoder when the model is loaded back.
type Model interface {
	Kind() Kind
	Algorithm() AlgType
	encoding.BinaryMarshaler
}

// OutlierModel fits on a batch and flags the outliers of the same batch.
// FitPredict leaves the receiver untouched and returns the freshly fit model.
type OutlierModel interface {
	Model
	FitPredict(ctx context.Context, data [][]float64) (OutlierModel, []bool, error)
}

// ClusterModel fits on a batch and assigns a cluster id to every row.
// FitPredict leaves the receiver untouched and returns the freshly fit model.
type ClusterModel interface {
	Model
	FitPredict(ctx context.Context, data [][]float64) (ClusterModel, []int, error)
}

// ProvideFn returns a default-configured, unfitted model.
type ProvideFn func() (Model, error)

// DecodeFn restores a model previously produced by MarshalBinary.
type DecodeFn func(payload []byte) (Model, error)
