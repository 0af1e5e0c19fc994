package formats

import "github.com/okian/racerank/pkg/logger"

// Layout names, also written into the header record.
const (
	NameOtop             = "Otop"
	NameGlobalPacing     = "GlobalPacing"
	NameChallengeLaMeuse = "ChallengeLaMeuse"
	NameGoalTiming       = "GoalTiming"
	NameGeneric          = "Generic"
)

var otopLayout = layout{
	name:      NameOtop,
	signature: []string{"Pl.", "Dos", "Nom", "Cat.", "Club", "Temps", "Vitesse", "min/km"},
	columns: []column{
		{field: fieldPos, labels: []string{"Pl."}},
		{field: fieldBib, labels: []string{"Dos", "Dos."}},
		{field: fieldName, labels: []string{"Nom"}},
		{field: fieldSex, labels: []string{"Sexe", "S."}},
		{field: fieldCategory, labels: []string{"Cat."}},
		{field: fieldPosCat, labels: []string{"Pl. Cat."}},
		{field: fieldTeam, labels: []string{"Club"}},
		{field: fieldTime, labels: []string{"Temps"}},
		{field: fieldSpeed, labels: []string{"Vitesse"}},
		{field: fieldPace, labels: []string{"min/km"}},
	},
	order: upperFirst,
}

var globalPacingLayout = layout{
	name:      NameGlobalPacing,
	signature: []string{"Place", "Dossard", "Nom", "Prénom", "Temps", "Moyenne", "Pl. Cat"},
	columns: []column{
		{field: fieldPos, labels: []string{"Place"}},
		{field: fieldBib, labels: []string{"Dossard"}},
		{field: fieldLast, labels: []string{"Nom"}},
		{field: fieldFirst, labels: []string{"Prénom"}},
		{field: fieldSex, labels: []string{"Sexe"}},
		{field: fieldPosSex, labels: []string{"Pl. Sexe"}},
		{field: fieldCategory, labels: []string{"Catégorie", "Cat"}},
		{field: fieldPosCat, labels: []string{"Pl. Cat"}},
		{field: fieldTeam, labels: []string{"Equipe", "Club"}},
		{field: fieldTime, labels: []string{"Temps"}},
		{field: fieldSpeed, labels: []string{"Moyenne"}},
	},
}

var challengeLaMeuseLayout = layout{
	name:      NameChallengeLaMeuse,
	signature: []string{"Clt", "Coureur", "Club", "Cat", "Sexe", "Temps", "Km/h"},
	columns: []column{
		{field: fieldPos, labels: []string{"Clt"}},
		{field: fieldName, labels: []string{"Coureur"}},
		{field: fieldTeam, labels: []string{"Club"}},
		{field: fieldCategory, labels: []string{"Cat"}},
		{field: fieldSex, labels: []string{"Sexe"}},
		{field: fieldTime, labels: []string{"Temps"}},
		{field: fieldSpeed, labels: []string{"Km/h"}},
	},
	order:        lastFirst,
	winnerMarker: "Meilleur temps",
}

var goalTimingLayout = layout{
	name:      NameGoalTiming,
	signature: []string{"Pos", "Bib", "Name", "Gender", "Category", "Time", "Pace"},
	columns: []column{
		{field: fieldPos, labels: []string{"Pos"}},
		{field: fieldBib, labels: []string{"Bib"}},
		{field: fieldName, labels: []string{"Name"}},
		{field: fieldSex, labels: []string{"Gender"}},
		{field: fieldPosSex, labels: []string{"Gender Pos"}},
		{field: fieldCategory, labels: []string{"Category"}},
		{field: fieldPosCat, labels: []string{"Cat Pos"}},
		{field: fieldTeam, labels: []string{"Team", "Club"}},
		{field: fieldTime, labels: []string{"Time"}},
		{field: fieldPace, labels: []string{"Pace"}},
		{field: fieldSpeed, labels: []string{"Speed"}},
	},
	order: firstUpper,
}

// NewOtop parses Otop tables: "DUPONT Jean" names, speed and min/km columns.
func NewOtop(threshold float64, log logger.Logger) *Table {
	return newTable(otopLayout, threshold, log)
}

// NewGlobalPacing parses Global Pacing tables with separate name columns.
func NewGlobalPacing(threshold float64, log logger.Logger) *Table {
	return newTable(globalPacingLayout, threshold, log)
}

// NewChallengeLaMeuse parses Challenge La Meuse tables. A "Meilleur temps"
// line above the table becomes the winner record.
func NewChallengeLaMeuse(threshold float64, log logger.Logger) *Table {
	return newTable(challengeLaMeuseLayout, threshold, log)
}

// NewGoalTiming parses Goal Timing tables: "Jean DUPONT" names. Without a
// Time column the Pace column carries the times and the file is flagged as
// pace based.
func NewGoalTiming(threshold float64, log logger.Logger) *Table {
	return newTable(goalTimingLayout, threshold, log)
}

// DefaultParsers returns the known layouts in detection order.
func DefaultParsers(threshold float64, log logger.Logger) []Parser {
	return []Parser{
		NewOtop(threshold, log),
		NewGlobalPacing(threshold, log),
		NewChallengeLaMeuse(threshold, log),
		NewGoalTiming(threshold, log),
	}
}
