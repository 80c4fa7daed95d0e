// Package srvenv holds the shared resources built by setup and used by the
// server handlers.
package srvenv

import (
	"context"
	"errors"

	"github.com/go-sod/vtml/internal/alert"
	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/maintenance"
	"github.com/go-sod/vtml/internal/modelstore"
	"github.com/go-sod/vtml/internal/stream"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database    *database.DB
	state       *modelstore.State
	notifier    alert.ProvideFn
	stream      *stream.Hub
	maintenance *maintenance.Predictor
}

// ProvideNotifier is nil when alerts are disabled.
func (s *SrvEnv) ProvideNotifier() alert.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ModelState() *modelstore.State {
	return s.state
}

// Stream is nil when the anomaly stream is disabled.
func (s *SrvEnv) Stream() *stream.Hub {
	return s.stream
}

func (s *SrvEnv) Maintenance() *maintenance.Predictor {
	return s.maintenance
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithNotifier(fn alert.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithModelState(state *modelstore.State) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.state = state
		return s
	}
}

func WithStream(hub *stream.Hub) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.stream = hub
		return s
	}
}

func WithMaintenance(p *maintenance.Predictor) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.maintenance = p
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

// Close releases everything in reverse order of creation.
func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.stream != nil {
		s.stream.Close()
	}
	if s.state != nil {
		errs = append(errs, s.state.Close(ctx))
	}
	if s.database != nil {
		errs = append(errs, s.database.Close(ctx))
	}
	return errors.Join(errs...)
}
