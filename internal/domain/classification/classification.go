// Package classification aggregates race results into a per-member season
// classification.
//
// Entries are keyed by the member's folded full name and the race name. A
// repeated result for the same pair keeps the best points and adds the race
// distance to the bonus km again, so re-processing a file doubles its bonus.
//
// A Classification is not safe for concurrent mutation; give each job its
// own instance and merge finished jobs under a lock.
package classification

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/types"
)

// Result is one scored race result for a participant.
type Result struct {
	Points      int
	RaceTime    time.Duration
	TimePerKm   time.Duration
	Position    int
	Team        string
	Speed       float64
	Sex         string
	PositionSex int
	Category    string
	PositionCat int
}

// MemberClassification is the state of one (member, race) pair.
type MemberClassification struct {
	Participant model.Participant
	Race        model.RaceDistance
	Points      int
	BonusKm     int
	RaceTime    time.Duration
	TimePerKm   time.Duration
	Position    int
	Team        string
	Speed       float64
	Sex         string
	PositionSex int
	Category    string
	PositionCat int
}

// IsMember reports the member flag of the participant.
func (mc *MemberClassification) IsMember() bool { return mc.Participant.IsMember }

// IsChallenger reports the challenger flag of the participant.
func (mc *MemberClassification) IsChallenger() bool { return mc.Participant.IsChallenger }

// Entry converts mc to its API representation.
func (mc *MemberClassification) Entry() types.ClassificationEntry {
	e := types.ClassificationEntry{
		FirstName:    mc.Participant.FirstName,
		LastName:     mc.Participant.LastName,
		Email:        mc.Participant.Email,
		Race:         mc.Race.Name,
		DistanceKm:   mc.Race.DistanceKm,
		Points:       mc.Points,
		BonusKm:      mc.BonusKm,
		Position:     mc.Position,
		Team:         mc.Team,
		Speed:        mc.Speed,
		Sex:          mc.Sex,
		Category:     mc.Category,
		IsMember:     mc.IsMember(),
		IsChallenger: mc.IsChallenger(),
		External:     mc.Participant.IsExternal(),
	}
	if mc.RaceTime > 0 {
		e.RaceTime = normalize.FormatDuration(mc.RaceTime)
	}
	if mc.TimePerKm > 0 {
		e.TimePerKm = normalize.FormatDuration(mc.TimePerKm)
	}
	return e
}

// Classification maps entry keys to member classifications.
type Classification struct {
	entries map[string]*MemberClassification
}

// New returns an empty classification.
func New() *Classification {
	return &Classification{entries: make(map[string]*MemberClassification)}
}

// Key builds the entry key of a member in a race.
func Key(m model.Member, raceName string) string {
	return normalize.CollapseSpaces(m.Key()) + "_" + raceName
}

// AddOrUpdateResult records res for p in race and returns the updated entry.
func (c *Classification) AddOrUpdateResult(p model.Participant, race model.RaceDistance, res Result) *MemberClassification {
	key := Key(p.Member, race.Name)
	mc, ok := c.entries[key]
	if !ok {
		mc = &MemberClassification{Race: race, Points: res.Points}
		c.entries[key] = mc
	} else if res.Points > mc.Points {
		mc.Points = res.Points
	}
	mc.BonusKm += race.DistanceKm
	mc.Participant = p
	mc.Race = race
	mc.RaceTime = res.RaceTime
	mc.TimePerKm = res.TimePerKm
	mc.Position = res.Position
	mc.Team = res.Team
	mc.Speed = res.Speed
	mc.Sex = res.Sex
	mc.PositionSex = res.PositionSex
	mc.Category = res.Category
	mc.PositionCat = res.PositionCat
	return mc
}

// GetClassification returns a copy of the entry for m in raceName, or nil.
func (c *Classification) GetClassification(m model.Member, raceName string) *MemberClassification {
	mc, ok := c.entries[Key(m, raceName)]
	if !ok {
		return nil
	}
	cp := *mc
	return &cp
}

// GetAllClassifications returns copies of every entry ordered by last name,
// first name and race name.
func (c *Classification) GetAllClassifications() []MemberClassification {
	out := make([]MemberClassification, 0, len(c.entries))
	for _, mc := range c.entries {
		out = append(out, *mc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if la, lb := normalize.Fold(a.Participant.LastName), normalize.Fold(b.Participant.LastName); la != lb {
			return la < lb
		}
		if fa, fb := normalize.Fold(a.Participant.FirstName), normalize.Fold(b.Participant.FirstName); fa != fb {
			return fa < fb
		}
		return a.Race.Name < b.Race.Name
	})
	return out
}

// Len returns the number of entries.
func (c *Classification) Len() int {
	return len(c.entries)
}

// Merge applies every entry of other to c: points take the maximum, bonus km
// is added and every other field is overwritten.
func (c *Classification) Merge(other *Classification) {
	if other == nil {
		return
	}
	for _, o := range other.GetAllClassifications() {
		key := Key(o.Participant.Member, o.Race.Name)
		mc, ok := c.entries[key]
		if !ok {
			cp := o
			c.entries[key] = &cp
			continue
		}
		points := max(mc.Points, o.Points)
		bonus := mc.BonusKm + o.BonusKm
		*mc = o
		mc.Points = points
		mc.BonusKm = bonus
	}
}

// Totals sums every member's races into standings ordered by points
// (descending), then last and first name.
func (c *Classification) Totals() []types.Standing {
	byMember := make(map[string]*types.Standing)
	var order []string
	for _, mc := range c.GetAllClassifications() {
		key := mc.Participant.Key()
		s, ok := byMember[key]
		if !ok {
			s = &types.Standing{
				FirstName: mc.Participant.FirstName,
				LastName:  mc.Participant.LastName,
				Email:     mc.Participant.Email,
				External:  mc.Participant.IsExternal(),
			}
			byMember[key] = s
			order = append(order, key)
		}
		s.Points += mc.Points
		s.BonusKm += mc.BonusKm
		s.Races++
		s.IsMember = s.IsMember || mc.IsMember()
		s.IsChallenger = s.IsChallenger || mc.IsChallenger()
	}

	out := make([]types.Standing, 0, len(order))
	for _, k := range order {
		out = append(out, *byMember[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		if l := strings.Compare(normalize.Fold(out[i].LastName), normalize.Fold(out[j].LastName)); l != 0 {
			return l < 0
		}
		return normalize.Fold(out[i].FirstName) < normalize.Fold(out[j].FirstName)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
