package modelstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/predictor"
)

type Option func(*State)

// WithSerializedFits makes Guard hold a per-kind mutex. Without it concurrent
// fits of one kind race and the last writer wins.
func WithSerializedFits(v bool) Option {
	return func(s *State) {
		s.serialize = v
	}
}

func WithDecoder(alg predictor.AlgType, fn predictor.DecodeFn) Option {
	return func(s *State) {
		s.decoders[alg] = fn
	}
}

// State owns the current model of every registered kind.
type State struct {
	store     Store
	serialize bool
	decoders  map[predictor.AlgType]predictor.DecodeFn
	slots     map[predictor.Kind]*slot
}

type slot struct {
	provide predictor.ProvideFn
	current atomic.Value
	mu      sync.Mutex
}

// holder keeps atomic.Value stores on a single concrete type.
type holder struct {
	model predictor.Model
}

func NewState(store Store, opts ...Option) *State {
	s := &State{
		store:    store,
		decoders: map[predictor.AlgType]predictor.DecodeFn{},
		slots:    map[predictor.Kind]*slot{},
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Register adds a model slot. provide builds the default model used when
// nothing is persisted. Register must be called before Load.
func (s *State) Register(kind predictor.Kind, provide predictor.ProvideFn) {
	s.slots[kind] = &slot{provide: provide}
}

// Load fills every registered slot from the store. A kind with no saved state,
// or whose saved algorithm differs from the configured one, starts from the
// default model.
func (s *State) Load(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	for kind, sl := range s.slots {
		def, err := sl.provide()
		if err != nil {
			return fmt.Errorf("provide default %s model: %w", kind, err)
		}
		m, err := s.restore(ctx, kind, def)
		if err != nil {
			return err
		}
		if m == nil {
			logger.Infof("no stored %s model, starting from default %s", kind, def.Algorithm())
			m = def
		} else {
			logger.Infof("restored %s model (%s)", kind, m.Algorithm())
		}
		sl.current.Store(holder{model: m})
	}
	return nil
}

func (s *State) restore(ctx context.Context, kind predictor.Kind, def predictor.Model) (predictor.Model, error) {
	logger := logging.FromContext(ctx)
	data, err := s.store.Load(ctx, kind)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", kind, err)
	}
	e, err := decodeEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", kind, err)
	}
	if e.Kind != kind.String() {
		return nil, fmt.Errorf("load %s model: stored state is of kind %q", kind, e.Kind)
	}
	if predictor.AlgType(e.Algorithm) != def.Algorithm() {
		logger.Warnf("stored %s model is %s, configured %s; ignoring stored state", kind, e.Algorithm, def.Algorithm())
		return nil, nil
	}
	decode, ok := s.decoders[predictor.AlgType(e.Algorithm)]
	if !ok {
		return nil, fmt.Errorf("load %s model: no decoder for %s", kind, e.Algorithm)
	}
	m, err := decode(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", kind, err)
	}
	return m, nil
}

// Current returns the model last published for kind, or nil for an unknown or
// unloaded kind.
func (s *State) Current(kind predictor.Kind) predictor.Model {
	sl, ok := s.slots[kind]
	if !ok {
		return nil
	}
	h, ok := sl.current.Load().(holder)
	if !ok {
		return nil
	}
	return h.model
}

// Publish makes m the current model of its kind and saves it.
func (s *State) Publish(ctx context.Context, m predictor.Model) error {
	sl, ok := s.slots[m.Kind()]
	if !ok {
		return fmt.Errorf("publish: unknown model kind %s", m.Kind())
	}
	data, err := Encode(m)
	if err != nil {
		return fmt.Errorf("publish %s model: %w", m.Kind(), err)
	}
	sl.current.Store(holder{model: m})
	if err := s.store.Save(ctx, m.Kind(), data); err != nil {
		return fmt.Errorf("save %s model: %w", m.Kind(), err)
	}
	return nil
}

// Guard brackets a fit and publish of kind. The returned func releases it.
func (s *State) Guard(kind predictor.Kind) func() {
	sl, ok := s.slots[kind]
	if !s.serialize || !ok {
		return func() {}
	}
	sl.mu.Lock()
	return sl.mu.Unlock
}

func (s *State) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
