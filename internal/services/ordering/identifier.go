package ordering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/developia-II/storefront-backend/internal/adapters/repository"
)

const (
	PrefixOrder   = "ORD"
	PrefixRequest = "REQ"
)

// FormatIdentifier renders <PREFIX>-<epoch millis>-<seq, at least 4 digits>.
func FormatIdentifier(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, at.UnixMilli(), seq)
}

// Sequencer reserves identifier sequence numbers from a shared counter.
// The first use of each counter in a process raises it to the current
// record count, so databases that predate the counter keep counting on.
type Sequencer struct {
	counters repository.CounterRepository
	now      func() time.Time

	mu     sync.Mutex
	seeded map[string]bool
}

func NewSequencer(counters repository.CounterRepository, now func() time.Time) *Sequencer {
	if now == nil {
		now = time.Now
	}
	return &Sequencer{counters: counters, now: now, seeded: map[string]bool{}}
}

// Next returns a fresh identifier for the named counter. count reports how
// many records the collection already holds.
func (s *Sequencer) Next(ctx context.Context, prefix, name string, count func(context.Context) (int64, error)) (string, error) {
	if err := s.seed(ctx, name, count); err != nil {
		return "", err
	}
	seq, err := s.counters.Next(ctx, name)
	if err != nil {
		return "", err
	}
	return FormatIdentifier(prefix, s.now(), seq), nil
}

func (s *Sequencer) seed(ctx context.Context, name string, count func(context.Context) (int64, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded[name] {
		return nil
	}

	n, err := count(ctx)
	if err != nil {
		return fmt.Errorf("count %s: %w", name, err)
	}
	if err := s.counters.Seed(ctx, name, n); err != nil {
		return err
	}
	s.seeded[name] = true
	return nil
}
