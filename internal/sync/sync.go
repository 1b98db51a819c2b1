// Package sync exports the article catalogue to S3 and git on a schedule.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/metrics"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// destinationTimeout bounds one destination write within a run.
const destinationTimeout = 2 * time.Minute

// Destination receives the JSONL export.
type Destination interface {
	Name() string
	Write(ctx context.Context, data []byte) error
}

// Scheduler exports the catalogue on a fixed interval and fans each export
// out to its destinations in parallel.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	// Optional.
	Metrics   *metrics.Registry
	Publisher events.Publisher

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger.With("component", "sync"),
	}
}

// Start runs one export immediately and then one per interval until Stop.
// Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel, s.done = cancel, make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for an in-flight export to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		_ = s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce exports the catalogue and writes it to every destination. A
// failing destination does not stop the others; their errors are joined.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		s.logger.Error("export failed", "err", err)
		return err
	}
	data := buf.Bytes()

	start := time.Now()
	errs := s.fanOut(ctx, data)

	var written []string
	for i, dest := range s.destinations {
		if s.Metrics != nil {
			s.Metrics.RecordSync(dest.Name(), errs[i])
		}
		if errs[i] != nil {
			s.logger.Error("destination write failed", "destination", dest.Name(), "err", errs[i])
			continue
		}
		written = append(written, dest.Name())
	}
	s.logger.Info("sync completed",
		"articles", n,
		"bytes", len(data),
		"written", len(written),
		"failed", len(s.destinations)-len(written),
		"took", time.Since(start).Round(time.Millisecond),
	)

	if s.Publisher != nil && len(written) > 0 {
		ev := events.CatalogExported{Articles: n, Destinations: written}
		if err := s.Publisher.Publish(ctx, events.TopicCatalogExported, ev); err != nil {
			s.logger.Warn("publish export event", "err", err)
		}
	}
	return errors.Join(errs...)
}

// fanOut writes data to every destination concurrently. errs[i] belongs to
// s.destinations[i].
func (s *Scheduler) fanOut(ctx context.Context, data []byte) []error {
	errs := make([]error, len(s.destinations))
	var wg sync.WaitGroup
	for i, dest := range s.destinations {
		wg.Go(func() {
			wctx, cancel := context.WithTimeout(ctx, destinationTimeout)
			defer cancel()
			if err := dest.Write(wctx, data); err != nil {
				errs[i] = fmt.Errorf("%s: %w", dest.Name(), err)
			}
		})
	}
	wg.Wait()
	return errs
}
