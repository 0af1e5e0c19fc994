package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/model"
)

func jobResult(race string, km int, results map[string]int) *classification.Classification {
	c := classification.New()
	for last, points := range results {
		m := model.Member{FirstName: "X", LastName: last, IsMember: true}
		c.AddOrUpdateResult(model.RosterParticipant(m), model.RaceDistance{Name: race, DistanceKm: km}, classification.Result{Points: points})
	}
	return c
}

func TestSeasonStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	n, err := store.Merge(ctx, jobResult("Namur", 10, map[string]int{"Dupont": 1000, "Lambert": 857}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 merged entries, got %d", n)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	st, err := store.Rank(ctx, "x", "LAMBERT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Rank != 2 || st.Points != 857 || st.BonusKm != 10 {
		t.Errorf("unexpected standing %+v", st)
	}

	entries, err := store.Standings(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].LastName != "Dupont" {
		t.Errorf("unexpected standings %+v", entries)
	}
}

func TestSeasonStore_MergeAccumulates(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()

	mustMerge(t, store, jobResult("Namur", 10, map[string]int{"Dupont": 900}))
	mustMerge(t, store, jobResult("Huy", 12, map[string]int{"Dupont": 800}))
	// Same race again: best points kept, bonus added again.
	mustMerge(t, store, jobResult("Namur", 10, map[string]int{"Dupont": 950}))

	st, err := store.Rank(ctx, "X", "Dupont")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Points != 1750 {
		t.Errorf("expected 1750 points, got %d", st.Points)
	}
	if st.BonusKm != 32 {
		t.Errorf("expected 32 bonus km, got %d", st.BonusKm)
	}
	if st.Races != 2 {
		t.Errorf("expected 2 races, got %d", st.Races)
	}
	if got := len(store.Classifications(ctx)); got != 2 {
		t.Errorf("expected 2 entries, got %d", got)
	}
}

func TestSeasonStore_Ties(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()
	mustMerge(t, store, jobResult("Namur", 10, map[string]int{"A": 900, "B": 900, "C": 800}))

	entries, err := store.Standings(ctx, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantRank := []int{1, 2, 3}
	wantName := []string{"A", "B", "C"}
	for i, e := range entries {
		if e.Rank != wantRank[i] || e.LastName != wantName[i] {
			t.Errorf("entry %d: expected %s at rank %d, got %s at %d", i, wantName[i], wantRank[i], e.LastName, e.Rank)
		}
	}
}

func TestSeasonStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()

	if _, err := store.Merge(ctx, nil); !errors.Is(err, ErrNilClassification) {
		t.Errorf("expected ErrNilClassification, got %v", err)
	}
	if _, err := store.Standings(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := store.Rank(ctx, "No", "Body"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSeasonStore_StandingsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()
	mustMerge(t, store, jobResult("Namur", 10, map[string]int{"Dupont": 900}))

	entries, _ := store.Standings(ctx, 5)
	entries[0].Points = 0

	again, _ := store.Standings(ctx, 5)
	if again[0].Points != 900 {
		t.Errorf("standings were mutated through a returned slice")
	}
}

func TestSeasonStore_WithSeason(t *testing.T) {
	store := NewSeasonStore(WithSeason(jobResult("Namur", 10, map[string]int{"Dupont": 900})))
	if got := store.Count(context.Background()); got != 1 {
		t.Errorf("expected seeded entry, got %d", got)
	}
	if snap := store.Snapshot(); snap.PublishedAt.IsZero() {
		t.Error("expected a published snapshot")
	}
}

func TestSeasonStore_ConcurrentMerges(t *testing.T) {
	ctx := context.Background()
	store := NewSeasonStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			race := fmt.Sprintf("Race %d", i)
			if _, err := store.Merge(ctx, jobResult(race, 5, map[string]int{"Dupont": 500 + i})); err != nil {
				t.Errorf("merge %d: %v", i, err)
			}
			_, _ = store.Standings(ctx, 10)
		}(i)
	}
	wg.Wait()

	st, err := store.Rank(ctx, "X", "Dupont")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Races != 20 || st.BonusKm != 100 {
		t.Errorf("unexpected standing after concurrent merges: %+v", st)
	}
}

func mustMerge(t *testing.T, s *SeasonStore, c *classification.Classification) {
	t.Helper()
	if _, err := s.Merge(context.Background(), c); err != nil {
		t.Fatalf("merge: %v", err)
	}
}
