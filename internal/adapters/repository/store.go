// Package repository holds the season classification shared by all jobs.
package repository

import (
	"context"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/types"
)

// Store provides read/write access to the season state.
type Store interface {
	// Merge applies a finished job's classification and returns how many
	// entries it carried.
	Merge(ctx context.Context, c *classification.Classification) (int, error)

	// Classifications returns every (member, race) entry ordered by name and race.
	Classifications(ctx context.Context) []classification.MemberClassification

	// Standings returns the top-n members ordered by total points.
	Standings(ctx context.Context, n int) ([]types.Standing, error)

	// Rank returns the standing of one member.
	// Returns ErrNotFound if the member has no result.
	Rank(ctx context.Context, firstName, lastName string) (types.Standing, error)

	// Count returns the number of (member, race) entries.
	Count(ctx context.Context) int
}
