// Package record implements the canonical semicolon-delimited record format
// exchanged between layout parsers and the race result parser.
//
//	KIND;pos;lastName;firstName;time;...;KEY1;VAL1;KEY2;VAL2
package record

import (
	"strconv"
	"strings"
)

// Kind identifies a record.
type Kind string

// Record kinds.
const (
	KindHeader Kind = "HEADER"
	KindWinner Kind = "TWINNER"
	KindMember Kind = "TMEM"
)

// Tail vocabulary. Keys are case-insensitive on input and upper case on output.
const (
	KeyPos         = "POS"
	KeyRaceType    = "RACETYPE"
	KeyRaceTime    = "RACETIME"
	KeyTimePerKm   = "TIMEPERKM"
	KeyTeam        = "TEAM"
	KeySpeed       = "SPEED"
	KeySex         = "SEX"
	KeyPositionSex = "POSITIONSEX"
	KeyCategory    = "CATEGORY"
	KeyPositionCat = "POSITIONCAT"
	KeyIsMember    = "ISMEMBER"
)

// RaceTypeTimePerKm marks files whose primary times are paces.
const RaceTypeTimePerKm = "TIME_PER_KM"

// Separator between fields.
const Separator = ";"

// fixedFields is the count of positional fields that are never read as keys.
const fixedFields = 4

var knownKeys = map[string]struct{}{
	KeyPos: {}, KeyRaceType: {}, KeyRaceTime: {}, KeyTimePerKm: {}, KeyTeam: {}, KeySpeed: {},
	KeySex: {}, KeyPositionSex: {}, KeyCategory: {}, KeyPositionCat: {}, KeyIsMember: {},
}

// IsKey reports whether s names a tail key.
func IsKey(s string) bool {
	_, ok := knownKeys[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

// Pair is one KEY;VALUE entry of the tail.
type Pair struct {
	Key   string
	Value string
}

// Record is a decoded participant or winner line.
type Record struct {
	Kind       Kind
	Positional []string
	Tail       []Pair
}

// NewParticipant starts a TMEM record. A zero pos leaves the field empty.
func NewParticipant(pos int, last, first, raceTime string) *Record {
	return newRecord(KindMember, pos, last, first, raceTime)
}

// NewWinner starts a TWINNER record for a best-time line.
func NewWinner(last, first, raceTime string) *Record {
	return newRecord(KindWinner, 1, last, first, raceTime)
}

func newRecord(kind Kind, pos int, last, first, raceTime string) *Record {
	p := ""
	if pos > 0 {
		p = strconv.Itoa(pos)
	}
	r := &Record{Kind: kind, Positional: []string{p, last, first, raceTime}}
	if pos > 0 {
		r.Set(KeyPos, p)
	}
	return r
}

// Set stores value under key, replacing an earlier value. Empty values are skipped.
func (r *Record) Set(key, value string) *Record {
	key = strings.ToUpper(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if value == "" || !IsKey(key) {
		return r
	}
	for i := range r.Tail {
		if r.Tail[i].Key == key {
			r.Tail[i].Value = value
			return r
		}
	}
	r.Tail = append(r.Tail, Pair{Key: key, Value: value})
	return r
}

// Get returns the tail value for key.
func (r *Record) Get(key string) (string, bool) {
	key = strings.ToUpper(key)
	for _, p := range r.Tail {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Field returns positional field i, or "" when absent.
func (r *Record) Field(i int) string {
	if i < 0 || i >= len(r.Positional) {
		return ""
	}
	return r.Positional[i]
}

// Position returns the POS tail value, falling back to the first positional field.
func (r *Record) Position() (int, bool) {
	v, ok := r.Get(KeyPos)
	if !ok {
		v = r.Field(0)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Text joins the name-bearing positional fields for roster matching.
func (r *Record) Text() string {
	parts := make([]string, 0, len(r.Positional))
	for i, f := range r.Positional {
		if i == 0 || f == "" {
			continue
		}
		parts = append(parts, f)
	}
	return strings.Join(parts, " ")
}

// String encodes the record.
func (r *Record) String() string {
	fields := make([]string, 0, 1+len(r.Positional)+2*len(r.Tail))
	fields = append(fields, string(r.Kind))
	for _, f := range r.Positional {
		fields = append(fields, sanitize(f))
	}
	for _, p := range r.Tail {
		fields = append(fields, p.Key, sanitize(p.Value))
	}
	return strings.Join(fields, Separator)
}

// Decode parses a participant or winner line. The first four positional
// fields are never read as keys; after them the first recognized key starts
// the tail. Unknown tail keys are skipped with their value and repeated keys
// keep their first value.
func Decode(line string) *Record {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), Separator)
	r := &Record{Kind: Kind(strings.ToUpper(strings.TrimSpace(fields[0])))}
	rest := fields[1:]

	i := 0
	for ; i < len(rest); i++ {
		if i >= fixedFields && IsKey(rest[i]) && i+1 < len(rest) {
			break
		}
		r.Positional = append(r.Positional, strings.TrimSpace(rest[i]))
	}
	for ; i+1 < len(rest); i += 2 {
		key := strings.ToUpper(strings.TrimSpace(rest[i]))
		if !IsKey(key) {
			continue
		}
		if _, seen := r.Get(key); seen {
			continue
		}
		if v := strings.TrimSpace(rest[i+1]); v != "" {
			r.Tail = append(r.Tail, Pair{Key: key, Value: v})
		}
	}
	return r
}

// FieldCount returns the number of separator-delimited fields in line.
func FieldCount(line string) int {
	return strings.Count(line, Separator) + 1
}

var sanitizer = strings.NewReplacer(Separator, ",", "\n", " ", "\r", " ")

func sanitize(s string) string {
	return sanitizer.Replace(strings.TrimSpace(s))
}
