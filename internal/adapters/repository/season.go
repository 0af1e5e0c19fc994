package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/types"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Snapshot is an immutable view of the season standings. A new one is
// published after every merge so reads never take the store lock.
type Snapshot struct {
	Standings    []types.Standing
	RankByMember map[string]int // member key -> index into Standings
	Entries      int
	PublishedAt  time.Time
}

// SeasonStore is the in-memory Store. Merges are serialized; standings are
// served from the latest snapshot.
type SeasonStore struct {
	mu       sync.RWMutex
	season   *classification.Classification
	snapshot atomic.Pointer[Snapshot]
	log      logger.Logger
}

var _ Store = (*SeasonStore)(nil)

// NewSeasonStore constructs an empty season store.
func NewSeasonStore(opts ...Option) *SeasonStore {
	s := &SeasonStore{
		season: classification.New(),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.publishSnapshotInternal()
	s.mu.Unlock()
	return s
}

// Merge implements Store.Merge.
func (s *SeasonStore) Merge(ctx context.Context, c *classification.Classification) (int, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStageLatency("merge", float64(time.Since(start).Milliseconds()))
	}()

	if c == nil {
		metrics.RecordErrorByComponent("repository", "nil_classification")
		return 0, ErrNilClassification
	}

	n := c.Len()
	s.mu.Lock()
	s.season.Merge(c)
	s.publishSnapshotInternal()
	total := s.season.Len()
	s.mu.Unlock()

	metrics.UpdateClassificationMembers(total)
	s.log.Debug(ctx, "season merged", logger.Int("entries", n), logger.Int("total", total))
	return n, nil
}

// Classifications implements Store.Classifications.
func (s *SeasonStore) Classifications(ctx context.Context) []classification.MemberClassification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.season.GetAllClassifications()
}

// Standings implements Store.Standings.
func (s *SeasonStore) Standings(ctx context.Context, n int) ([]types.Standing, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap := s.snapshot.Load()
	n = min(n, len(snap.Standings))
	out := make([]types.Standing, n)
	copy(out, snap.Standings[:n])
	return out, nil
}

// Rank implements Store.Rank.
func (s *SeasonStore) Rank(ctx context.Context, firstName, lastName string) (types.Standing, error) {
	snap := s.snapshot.Load()
	key := model.Member{FirstName: firstName, LastName: lastName}.Key()
	i, ok := snap.RankByMember[key]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Standing{}, ErrNotFound
	}
	return snap.Standings[i], nil
}

// Count implements Store.Count.
func (s *SeasonStore) Count(ctx context.Context) int {
	return s.snapshot.Load().Entries
}

// Snapshot returns the latest published snapshot.
func (s *SeasonStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// publishSnapshotInternal rebuilds and publishes a new snapshot (assumes the write lock is held).
func (s *SeasonStore) publishSnapshotInternal() {
	standings := s.season.Totals()

	rankByMember := make(map[string]int, len(standings))
	for i, st := range standings {
		rankByMember[model.Member{FirstName: st.FirstName, LastName: st.LastName}.Key()] = i
	}
	s.snapshot.Store(&Snapshot{
		Standings:    standings,
		RankByMember: rankByMember,
		Entries:      s.season.Len(),
		PublishedAt:  time.Now(),
	})
}
