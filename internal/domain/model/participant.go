package model

import "github.com/okian/racerank/internal/domain/normalize"

// Provenance tells where a classified participant comes from.
type Provenance int

const (
	// FromRoster is a member matched against the roster.
	FromRoster Provenance = iota
	// External is a placeholder for a winner who is not on the roster.
	External
)

func (p Provenance) String() string {
	if p == External {
		return "external"
	}
	return "roster"
}

// Participant is a member credited with a result.
type Participant struct {
	Member
	Provenance Provenance
}

// RosterParticipant wraps a roster member.
func RosterParticipant(m Member) Participant {
	return Participant{Member: m, Provenance: FromRoster}
}

// ExternalWinner builds the placeholder for an unmatched winner line from the
// record's name text. The last word is taken as the first name.
func ExternalWinner(text string) Participant {
	last, first := normalize.SplitLastFirst(normalize.CleanName(text))
	if last == "" {
		last = "Unknown"
	}
	return Participant{
		Member: Member{
			FirstName: first,
			LastName:  last,
			Email:     ExternalEmail,
		},
		Provenance: External,
	}
}

// IsExternal reports whether p is a placeholder.
func (p Participant) IsExternal() bool {
	return p.Provenance == External
}
