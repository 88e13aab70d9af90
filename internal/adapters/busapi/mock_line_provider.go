package busapi

import (
	"bus-arrival-service/internal/domain"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// In-memory LineDataProvider for tests and offline wiring.
type MockLineProvider struct {
	mu         sync.Mutex
	details    map[string]*domain.LineDetail
	errs       map[string]error
	timetables map[string][]domain.TimetableEntry
	delay      time.Duration
	calls      map[string]int
}

func NewMockLineProvider(details map[string]*domain.LineDetail) *MockLineProvider {
	if details == nil {
		details = make(map[string]*domain.LineDetail)
	}
	return &MockLineProvider{
		details:    details,
		errs:       make(map[string]error),
		timetables: make(map[string][]domain.TimetableEntry),
		calls:      make(map[string]int),
	}
}

// Fail makes every fetch of lineID return err.
func (p *MockLineProvider) Fail(lineID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[lineID] = err
}

func (p *MockLineProvider) SetDetail(lineID string, d *domain.LineDetail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.details[lineID] = d
	delete(p.errs, lineID)
}

func (p *MockLineProvider) SetTimetable(lineID string, entries []domain.TimetableEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timetables[lineID] = entries
}

// SetDelay makes every call block for d or until ctx is done.
func (p *MockLineProvider) SetDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
}

// Calls returns how many times lineID was fetched.
func (p *MockLineProvider) Calls(lineID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[lineID]
}

func (p *MockLineProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func (p *MockLineProvider) wait(ctx context.Context) error {
	p.mu.Lock()
	d := p.delay
	p.mu.Unlock()
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *MockLineProvider) LineDetail(ctx context.Context, lineID string, targetOrder int) (*domain.LineDetail, error) {
	p.mu.Lock()
	p.calls[lineID]++
	p.mu.Unlock()

	if err := p.wait(ctx); err != nil {
		return nil, &domain.ProviderError{Kind: domain.KindTimeout, Op: "mock.LineDetail", LineID: lineID, Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.errs[lineID]; ok {
		return nil, &domain.ProviderError{Kind: domain.KindNetwork, Op: "mock.LineDetail", LineID: lineID, Err: err}
	}
	d, ok := p.details[lineID]
	if !ok {
		return nil, &domain.ProviderError{
			Kind:   domain.KindBusiness,
			Op:     "mock.LineDetail",
			LineID: lineID,
			Err:    fmt.Errorf("unknown line %q", lineID),
		}
	}
	return d, nil
}

func (p *MockLineProvider) Timetable(ctx context.Context, lineID string, stationID string) ([]domain.TimetableEntry, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.timetables[lineID]
	if !ok {
		return nil, &domain.ProviderError{
			Kind:   domain.KindBusiness,
			Op:     "mock.Timetable",
			LineID: lineID,
			Err:    errors.New("no timetable"),
		}
	}
	return entries, nil
}
