package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/google/uuid"
)

// reportEntry is a stored report with expiration
type reportEntry struct {
	report    *risk.Report
	expiresAt time.Time
}

// InMemoryReportStore keeps reports in process memory.
// This is suitable for single-instance deployments and testing.
type InMemoryReportStore struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]reportEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryReportStore creates a store whose reports expire after ttl.
// A zero ttl keeps reports until they are deleted.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryReportStore(ttl time.Duration) *InMemoryReportStore {
	store := &InMemoryReportStore{
		entries:  make(map[uuid.UUID]reportEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Save stores a copy of the report, replacing any report with the same ID
func (s *InMemoryReportStore) Save(ctx context.Context, report *risk.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := reportEntry{report: cloneReport(report)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[report.ID] = e
	return nil
}

// Get returns a copy of a stored report
func (s *InMemoryReportStore) Get(ctx context.Context, id uuid.UUID) (*risk.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		return nil, risk.ErrReportNotFound
	}
	return cloneReport(e.report), nil
}

// Delete removes a report. Deleting an unknown report is not an error.
func (s *InMemoryReportStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the cleanup goroutine.
// Safe to call multiple times.
func (s *InMemoryReportStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryReportStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryReportStore) expired(e reportEntry) bool {
	return !e.expiresAt.IsZero() && s.now().After(e.expiresAt)
}

func (s *InMemoryReportStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryReportStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
		}
	}
}

// cloneReport copies the slices of a report so stored reports are not
// changed through the caller's pointer
func cloneReport(r *risk.Report) *risk.Report {
	c := *r
	c.SelectedCustomers = append([]risk.Customer(nil), r.SelectedCustomers...)
	c.Rows = append([]risk.ReportRow{}, r.Rows...)
	c.Failures = append([]risk.Failure(nil), r.Failures...)
	c.Policy.ExcludedProductIDs = append([]uuid.UUID(nil), r.Policy.ExcludedProductIDs...)
	c.Policy.ChequeMethodCodes = append([]string(nil), r.Policy.ChequeMethodCodes...)
	return &c
}
