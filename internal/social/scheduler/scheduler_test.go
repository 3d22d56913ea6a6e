package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"chatsaid-backend/internal/social/usecase"
	"chatsaid-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type countingImporter struct {
	mu    sync.Mutex
	calls int
	opts  []usecase.ImportOptions
	ids   [][]string
}

func (c *countingImporter) ImportForAccounts(ctx context.Context, ids []string, opts usecase.ImportOptions) ([]usecase.ImportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.opts = append(c.opts, opts)
	c.ids = append(c.ids, ids)
	return []usecase.ImportResult{{AccountID: "a", Inserted: 1}}, nil
}

func (c *countingImporter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	imp := &countingImporter{}
	s := NewImportScheduler(imp, 20*time.Millisecond, logger.Discard())
	s.Start()

	assert.Eventually(t, func() bool { return imp.count() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := imp.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, imp.count(), "no passes after Stop")

	imp.mu.Lock()
	defer imp.mu.Unlock()
	assert.True(t, imp.opts[0].AutoConvert)
	assert.Nil(t, imp.ids[0])
}

func TestSchedulerDisabledWithZeroInterval(t *testing.T) {
	imp := &countingImporter{}
	s := NewImportScheduler(imp, 0, logger.Discard())
	s.Start()
	s.Stop()
	assert.Zero(t, imp.count())
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewImportScheduler(&countingImporter{}, time.Hour, logger.Discard())
	s.Start()
	s.Stop()
	assert.NotPanics(t, s.Stop)
}

func TestStopBeforeStartDoesNotBlock(t *testing.T) {
	imp := &countingImporter{}
	s := NewImportScheduler(imp, time.Hour, logger.Discard())
	s.Stop()
	s.Start()
	assert.Zero(t, imp.count())
}
