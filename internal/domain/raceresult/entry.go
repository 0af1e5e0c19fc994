package raceresult

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/record"
)

// entry is one participant or winner line after the extraction phase.
type entry struct {
	key      int
	rec      *record.Record
	position int

	raceTime  time.Duration
	timePerKm time.Duration

	// scoreTime is what the points are computed from; scoreIsPace tells
	// whether it is a per-km pace or a total time.
	scoreTime   time.Duration
	scoreIsPace bool

	team        string
	speed       float64
	sex         string
	positionSex int
	category    string
	positionCat int
	isMember    bool
}

// extract pulls metadata and times from rec. paceMode is the file-scoped flag
// and is returned updated.
func (p *Parser) extract(key int, rec *record.Record, paceMode bool) (entry, bool, error) {
	e := entry{key: key, rec: rec}

	if v, ok := rec.Get(record.KeyRaceType); ok && strings.EqualFold(v, record.RaceTypeTimePerKm) {
		paceMode = true
	}
	e.position, _ = rec.Position()
	e.team, _ = rec.Get(record.KeyTeam)
	if v, ok := rec.Get(record.KeySpeed); ok {
		if s, err := normalize.ParseSpeedWithin(v, 0, p.maxSpeed); err == nil {
			e.speed = s
		}
	}
	if v, ok := rec.Get(record.KeySex); ok {
		e.sex, _ = normalize.NormalizeSex(v)
	}
	if v, ok := rec.Get(record.KeyCategory); ok {
		e.category, _ = normalize.NormalizeCategory(v)
	}
	e.positionSex = intValue(rec, record.KeyPositionSex)
	e.positionCat = intValue(rec, record.KeyPositionCat)
	if v, ok := rec.Get(record.KeyIsMember); ok {
		e.isMember, _ = strconv.ParseBool(v)
	}

	explicitRace := timeValue(rec, record.KeyRaceTime, normalize.RaceTimeWindow)
	explicitPace := timeValue(rec, record.KeyTimePerKm, normalize.PaceWindow)

	window := normalize.RaceTimeWindow
	if paceMode {
		window = normalize.PaceWindow
	}
	scanned := scanTime(rec.Positional, window)

	e.raceTime, e.timePerKm = explicitRace, explicitPace
	switch {
	case scanned > 0:
		e.scoreTime, e.scoreIsPace = scanned, paceMode
		if paceMode && e.timePerKm == 0 {
			e.timePerKm = scanned
		}
		if !paceMode && e.raceTime == 0 {
			e.raceTime = scanned
		}
	case explicitRace > 0:
		e.scoreTime = explicitRace
	case explicitPace > 0:
		e.scoreTime, e.scoreIsPace = explicitPace, true
	default:
		return e, paceMode, ErrMalformedRecord
	}
	return e, paceMode, nil
}

// scanTime returns the first positional value that is a time inside w.
func scanTime(fields []string, w normalize.TimeWindow) time.Duration {
	for _, f := range fields {
		d, err := normalize.ParseTime(f)
		if err == nil && w.Contains(d) {
			return d
		}
	}
	return 0
}

func timeValue(rec *record.Record, key string, w normalize.TimeWindow) time.Duration {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	d, err := normalize.ParseTime(v)
	if err != nil || !w.Contains(d) {
		return 0
	}
	return d
}

func intValue(rec *record.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// comparable converts e's score time to the kind of the reference. It reports
// false when the kinds differ and no distance is known.
func (e entry) comparable(refIsPace bool, distanceKm int) (time.Duration, bool) {
	switch {
	case e.scoreIsPace == refIsPace:
		return e.scoreTime, true
	case distanceKm <= 0:
		return 0, false
	case refIsPace:
		return e.scoreTime / time.Duration(distanceKm), true
	default:
		return e.scoreTime * time.Duration(distanceKm), true
	}
}

func (e entry) result(points int) classification.Result {
	return classification.Result{
		Points:      points,
		RaceTime:    e.raceTime,
		TimePerKm:   e.timePerKm,
		Position:    e.position,
		Team:        e.team,
		Speed:       e.speed,
		Sex:         e.sex,
		PositionSex: e.positionSex,
		Category:    e.category,
		PositionCat: e.positionCat,
	}
}
