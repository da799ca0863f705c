package moderation

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store holds per-user rate windows and warning counters. Both are keyed by
// user id only, so history is shared across every moderated chat.
// Implementations serialize updates to the same user.
type Store interface {
	// Hit records a message at now, drops timestamps older than window and
	// keeps at most keep entries. It returns the resulting window size.
	Hit(ctx context.Context, userID int64, now time.Time, window time.Duration, keep int) (int, error)
	// Sweep forgets users whose whole window has expired.
	Sweep(ctx context.Context, now time.Time, window time.Duration) (int, error)

	// AddWarning increments the user's counter. When the new count reaches
	// threshold the counter is reset in the same step and crossed is true, so
	// exactly one of several racing warnings sees the crossing.
	AddWarning(ctx context.Context, userID int64, threshold int) (count int, crossed bool, err error)
}

// MemoryStore keeps state in process memory. Updates for one user go through
// xsync's per-key Compute, so different users never contend on a shared lock.
type MemoryStore struct {
	windows  *xsync.MapOf[int64, []time.Time]
	warnings *xsync.MapOf[int64, int]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows:  xsync.NewMapOf[int64, []time.Time](),
		warnings: xsync.NewMapOf[int64, int](),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Hit(ctx context.Context, userID int64, now time.Time, window time.Duration, keep int) (int, error) {
	var n int
	s.windows.Compute(userID, func(old []time.Time, loaded bool) ([]time.Time, bool) {
		fresh := make([]time.Time, 0, len(old)+1)
		for _, ts := range old {
			if now.Sub(ts) < window {
				fresh = append(fresh, ts)
			}
		}
		fresh = append(fresh, now)
		if keep > 0 && len(fresh) > keep {
			fresh = fresh[len(fresh)-keep:]
		}
		n = len(fresh)
		return fresh, false
	})
	return n, nil
}

func (s *MemoryStore) Sweep(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	var idle []int64
	s.windows.Range(func(userID int64, ts []time.Time) bool {
		if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= window {
			idle = append(idle, userID)
		}
		return true
	})

	removed := 0
	for _, userID := range idle {
		// re-check under the per-key lock; the user may have posted since Range
		s.windows.Compute(userID, func(ts []time.Time, loaded bool) ([]time.Time, bool) {
			if !loaded {
				return nil, true
			}
			if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= window {
				removed++
				return nil, true
			}
			return ts, false
		})
	}
	return removed, nil
}

func (s *MemoryStore) AddWarning(ctx context.Context, userID int64, threshold int) (int, bool, error) {
	var (
		n       int
		crossed bool
	)
	s.warnings.Compute(userID, func(old int, loaded bool) (int, bool) {
		n = old + 1
		if threshold > 0 && n >= threshold {
			crossed = true
			return 0, true
		}
		return n, false
	})
	return n, crossed, nil
}

// warningCount returns the current counter of a user.
func (s *MemoryStore) warningCount(userID int64) int {
	n, _ := s.warnings.Load(userID)
	return n
}

// tracked returns how many users currently have a rate window.
func (s *MemoryStore) tracked() int {
	return s.windows.Size()
}
