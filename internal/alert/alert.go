// Package alert delivers detected anomalies to webhook targets in periodic
// per-vehicle batches.
package alert

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	alertDb "github.com/go-sod/vtml/internal/alert/database"
	"github.com/go-sod/vtml/internal/alert/model"
	"github.com/go-sod/vtml/internal/anomaly"
	"github.com/go-sod/vtml/internal/buildinfo"
	"github.com/go-sod/vtml/internal/database"
	"github.com/go-sod/vtml/internal/httputil"
	"github.com/go-sod/vtml/internal/logging"
	"github.com/go-sod/vtml/internal/metrics"
	"github.com/go-sod/vtml/pkg/rworker"
)

var _ anomaly.Notifier = (*manager)(nil)

type ProvideFn = func(chan<- error) (Manager, error)

type Options struct {
	maxConcurrentRequest int
	requestTimeout       time.Duration
	alertInterval        time.Duration
	maxPending           int
}

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(o *manager) {
		o.opts.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(o *manager) {
		o.opts.alertInterval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(o *manager) {
		o.opts.requestTimeout = t
	}
}

func WithMaxPending(n int) Option {
	return func(o *manager) {
		o.opts.maxPending = n
	}
}

func WithTargets(m Targets) Option {
	return func(o *manager) {
		o.targets = m
	}
}

var defaultOptions = Options{
	maxConcurrentRequest: 64,
	requestTimeout:       10 * time.Second,
	alertInterval:        5 * time.Second,
	maxPending:           1000,
}

type request struct {
	VehicleID int64            `json:"vehicle_id"`
	Anomalies []anomaly.Record `json:"anomalies"`
	SentAt    time.Time        `json:"sent_at"`
}

func New(db *database.DB, shutdownCh chan<- error, opts ...Option) (*manager, error) {
	m := &manager{
		opts:       defaultOptions,
		alertDb:    alertDb.New(db),
		shutdownCh: shutdownCh,
		targets:    Targets{},
		clients:    map[string]*http.Client{},
		alerts:     map[int64][]anomaly.Record{},
		trimmed:    map[int64]int{},
	}
	for _, f := range opts {
		f(m)
	}
	for _, target := range m.targets {
		if _, err := url.Parse(target.URL); err != nil {
			return nil, fmt.Errorf("invalid alert target url %s: %w", target.URL, err)
		}
		if _, ok := m.clients[target.URL]; !ok {
			client, err := httputil.NewClientFromConfig(target.HTTPConfig, true)
			if err != nil {
				return nil, fmt.Errorf("unable create client for target %s: %w", target.URL, err)
			}
			m.clients[target.URL] = client
		}
	}
	return m, nil
}

type Manager interface {
	anomaly.Notifier
	Run(context.Context) error
}

type manager struct {
	mtx        sync.Mutex
	opts       Options
	alertDb    *alertDb.DB
	shutdownCh chan<- error
	targets    Targets
	clients    map[string]*http.Client
	alerts     map[int64][]anomaly.Record
	// trimmed counts, per vehicle, records ever dropped from the front of
	// alerts by the pending cap
	trimmed map[int64]int
}

// Run replays alerts persisted by a previous shutdown and starts the delivery
// loop. When ctx is done the undelivered alerts are persisted and the outcome
// is sent on the shutdown channel.
func (m *manager) Run(ctx context.Context) error {
	if err := m.initialize(ctx); err != nil {
		return fmt.Errorf("can not start alert manager: %w", err)
	}
	go m.notifier(ctx)
	return nil
}

func (m *manager) Notify(records ...anomaly.Record) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var dropped int
	for i := range records {
		id := records[i].VehicleID
		pending := append(m.alerts[id], records[i])
		if over := len(pending) - m.opts.maxPending; m.opts.maxPending > 0 && over > 0 {
			pending = pending[over:]
			dropped += over
			m.trimmed[id] += over
		}
		m.alerts[id] = pending
	}
	if dropped > 0 {
		metrics.RecordAlertsDropped(context.Background(), dropped)
	}
}

// Pending returns the number of undelivered anomalies per vehicle.
func (m *manager) Pending() map[int64]int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := make(map[int64]int, len(m.alerts))
	for id, records := range m.alerts {
		if len(records) > 0 {
			out[id] = len(records)
		}
	}
	return out
}

func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	alerts, err := m.alertDb.FindAll(ctx, nil)
	if err != nil {
		logger.Errorf("Error with fetching data from db, %v", err)
		return nil
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})
	for i := range alerts {
		m.Notify(alerts[i].Records...)
		if err := m.alertDb.Delete(ctx, alerts[i]); err != nil {
			return fmt.Errorf("unable delete alert on initialize: %w", err)
		}
	}
	if len(alerts) > 0 {
		logger.Infof("replayed %d persisted alerts", len(alerts))
	}
	return nil
}

func (m *manager) shutdown() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for vehicleID, records := range m.alerts {
		if len(records) == 0 {
			continue
		}
		alert := model.NewAlert(vehicleID, records)
		if err := m.alertDb.Store(context.Background(), alert); err != nil {
			return fmt.Errorf("alert shutdown: unable store alert: %w", err)
		}
	}
	return nil
}

func (m *manager) notifier(ctx context.Context) {
	logger := logging.FromContext(ctx)
	defer func() {
		m.shutdownCh <- m.shutdown()
	}()
	ticker := time.NewTicker(m.opts.alertInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.flush(ctx)
		case <-ctx.Done():
			logger.Debugf("alert manager: context closed")
			return
		}
	}
}

// flush delivers the pending batch of every vehicle to its targets. A batch
// is cleared only when every target accepted it.
func (m *manager) flush(ctx context.Context) {
	logger := logging.FromContext(ctx)
	var (
		wg     sync.WaitGroup
		errCh  = make(chan error, m.opts.maxConcurrentRequest)
		rateCh = make(chan struct{}, m.opts.maxConcurrentRequest)
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for err := range errCh {
			logger.Errorf("alert error: %v", err)
		}
	}()

	type batch struct {
		records []anomaly.Record
		trimmed int
	}
	m.mtx.Lock()
	batches := make(map[int64]batch, len(m.alerts))
	for id, records := range m.alerts {
		if len(records) > 0 {
			batches[id] = batch{
				records: append([]anomaly.Record(nil), records...),
				trimmed: m.trimmed[id],
			}
		}
	}
	m.mtx.Unlock()

	for vehicleID, b := range batches {
		vehicleID, records, trimmed := vehicleID, b.records, b.trimmed
		rworker.Job(ctx, &wg, func() error {
			for _, target := range m.targets {
				if !target.Accepts(vehicleID) {
					continue
				}
				if err := m.do(ctx, target, request{
					VehicleID: vehicleID,
					Anomalies: records,
					SentAt:    time.Now().UTC(),
				}); err != nil {
					return fmt.Errorf("alert do request error for vehicle %d: %w", vehicleID, err)
				}
			}
			m.mtx.Lock()
			m.alerts[vehicleID] = sentRemoved(m.alerts[vehicleID], len(records), m.trimmed[vehicleID]-trimmed)
			m.mtx.Unlock()
			return nil
		}, rateCh, errCh)
	}
	wg.Wait()
	close(errCh)
	<-done
}

// sentRemoved drops the delivered records from the front of pending. The cap
// may have already trimmed some of them while the batch was in flight, and
// anomalies noted after the snapshot stay pending.
func sentRemoved(pending []anomaly.Record, sent, trimmedSince int) []anomaly.Record {
	left := sent - trimmedSince
	if left <= 0 {
		return pending
	}
	if left > len(pending) {
		left = len(pending)
	}
	return pending[left:]
}

func (m *manager) do(ctx context.Context, target Target, payload request) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.requestTimeout)
	defer cancel()
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("unable encode json data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("User-Agent", buildinfo.Info.UserAgent())
	req.Header.Add("Accept-Encoding", "gzip")
	client, ok := m.clients[target.URL]
	if !ok {
		return fmt.Errorf("client for target %s not defined", target.URL)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request error: %w", err)
	}

	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("unable create gzip.NewReader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	respBody, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("response was not 2xx: %d %s", resp.StatusCode, respBody)
	}
	return nil
}
