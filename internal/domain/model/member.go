// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/racerank/internal/domain/normalize"
)

// ErrInvalidMember is returned for a member without a last name.
var ErrInvalidMember = errors.New("invalid member")

// ExternalEmail is the address given to winners missing from the roster.
const ExternalEmail = "winner@external.com"

// Member is a known club member or challenger.
// Two members are the same person when their folded names match.
type Member struct {
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Email        string `json:"email,omitempty" yaml:"email"`
	IsMember     bool   `json:"is_member" yaml:"is_member"`
	IsChallenger bool   `json:"is_challenger" yaml:"is_challenger"`
}

// NewMember validates and builds a Member.
func NewMember(first, last, email string, isMember, isChallenger bool) (Member, error) {
	m := Member{
		FirstName:    normalize.CollapseSpaces(first),
		LastName:     normalize.CollapseSpaces(last),
		Email:        strings.TrimSpace(email),
		IsMember:     isMember,
		IsChallenger: isChallenger,
	}
	if err := m.Validate(); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Validate checks the last name invariant.
func (m Member) Validate() error {
	if strings.TrimSpace(m.LastName) == "" {
		return fmt.Errorf("%w: empty last name (first name %q)", ErrInvalidMember, m.FirstName)
	}
	return nil
}

// Key is the identity of the member: folded first and last name.
func (m Member) Key() string {
	return normalize.Fold(m.FirstName) + " " + normalize.Fold(m.LastName)
}

// Equal compares identities, ignoring case and accents.
func (m Member) Equal(o Member) bool {
	return m.Key() == o.Key()
}

// FullName returns "First Last".
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Matches reports whether folded text contains both the first and last name.
// An empty first name only requires the last name.
func (m Member) Matches(foldedText string) bool {
	last := normalize.Fold(m.LastName)
	if last == "" || !strings.Contains(foldedText, last) {
		return false
	}
	first := normalize.Fold(m.FirstName)
	return first == "" || strings.Contains(foldedText, first)
}
