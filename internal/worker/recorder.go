package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chumbacash/pebble-crypto-backend/internal/ports"
)

// Recorder periodically records aggregated best-price quotes through
// the history service.
type Recorder struct {
	history  ports.HistoryService
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRecorder creates a best-price recorder.
func NewRecorder(history ports.HistoryService, interval time.Duration, logger *slog.Logger) *Recorder {
	return &Recorder{
		history:  history,
		interval: interval,
		logger:   logger.With("component", "recorder"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins recording until the context is cancelled or Stop is
// called.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	r.logger.Info("starting recorder", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.record(ctx)

	for {
		select {
		case <-ctx.Done():
			r.finish()
			return ctx.Err()

		case <-r.stopCh:
			r.finish()
			return nil

		case <-ticker.C:
			r.record(ctx)
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	timeout := r.interval / 2
	if timeout < 5*time.Second {
		timeout = 5 * time.Second
	}

	recordCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.history.RecordOnce(recordCtx); err != nil {
		r.logger.Error("record cycle failed", "error", err)
	}
}

func (r *Recorder) finish() {
	close(r.doneCh)
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.logger.Info("recorder stopped")
}

// Stop gracefully stops the recorder.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	close(r.stopCh)

	select {
	case <-r.doneCh:
		return nil
	case <-time.After(10 * time.Second):
		return context.DeadlineExceeded
	}
}
