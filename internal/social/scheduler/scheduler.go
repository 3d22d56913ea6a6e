package scheduler

import (
	"context"
	"sync"
	"time"

	"chatsaid-backend/internal/social/usecase"
	"chatsaid-backend/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ImportScheduler runs a full import pass on a fixed interval. Passes never
// overlap: a tick that arrives while a pass is running is dropped.
type ImportScheduler struct {
	importer usecase.Importer
	interval time.Duration
	timeout  time.Duration
	log      *logrus.Entry

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewImportScheduler creates a new scheduler. A zero interval disables it.
func NewImportScheduler(importer usecase.Importer, interval time.Duration, log *logrus.Logger) *ImportScheduler {
	return &ImportScheduler{
		importer: importer,
		interval: interval,
		timeout:  interval,
		log:      logger.Component(log, "scheduler"),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ImportScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	if s.interval <= 0 {
		s.log.Info("Import interval not set, scheduler disabled")
		close(s.done)
		return
	}

	s.log.WithField("interval", s.interval.String()).Info("Starting import scheduler")

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.runOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce()
			case <-s.stopChan:
				s.log.Info("Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler and waits for a running pass.
// A scheduler stopped before Start never runs.
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.started = true
		close(s.done)
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

func (s *ImportScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// Abort an in-flight pass when Stop is called
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	results, err := s.importer.ImportForAccounts(ctx, nil, usecase.ImportOptions{AutoConvert: true})
	if err != nil {
		s.log.WithError(err).Error("Import pass failed")
		return
	}

	inserted, skipped := 0, 0
	for _, r := range results {
		inserted += r.Inserted
		skipped += r.Skipped
	}
	s.log.WithFields(logrus.Fields{
		"accounts": len(results),
		"inserted": inserted,
		"skipped":  skipped,
		"took":     time.Since(start).String(),
	}).Info("Import pass finished")
}
