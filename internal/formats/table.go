package formats

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/extract"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

type field int

const (
	fieldPos field = iota
	fieldBib
	fieldName
	fieldLast
	fieldFirst
	fieldSex
	fieldCategory
	fieldPosCat
	fieldPosSex
	fieldTeam
	fieldTime
	fieldPace
	fieldSpeed
)

type nameOrder int

const (
	upperFirst nameOrder = iota // DUPONT Jean
	lastFirst                   // Dupont Jean
	firstUpper                  // Jean DUPONT
)

// Row drop reasons, used as metric labels.
const (
	dropDisqualified = "disqualified"
	dropNoTime       = "no_time"
	dropNoName       = "no_name"
)

// maxAnchorTolerance caps how far left of its header a PDF cell may start.
const maxAnchorTolerance = 8.0

type column struct {
	field  field
	labels []string
}

type layout struct {
	name      string
	signature []string
	columns   []column
	order     nameOrder
	// winnerMarker introduces a best-time line above the table.
	winnerMarker string
}

// Table parses layouts whose header row anchors the data columns.
type Table struct {
	layout
	threshold float64
	log       logger.Logger
}

func newTable(l layout, threshold float64, log logger.Logger) *Table {
	if log == nil {
		log = logger.Nop()
	}
	return &Table{layout: l, threshold: threshold, log: log}
}

// Name returns the layout name.
func (t *Table) Name() string { return t.name }

// Signature returns the header terms that identify the layout.
func (t *Table) Signature() []string { return t.signature }

// Parse walks every row. Header rows (re)anchor the columns, rows above the
// first header are only inspected for a best-time line.
func (t *Table) Parse(ctx context.Context, doc Document) (record.Set, error) {
	b := record.NewBuilder(headerFor(t.name, doc.Filename))
	var g *grid
	last := 0
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, row := range page.Rows {
			if coverage(t.signature, row) >= t.threshold {
				if anchors := t.anchors(row); len(anchors) > 0 {
					g = newGrid(anchors)
				}
				continue
			}
			if g == nil {
				if w := t.winner(row); w != nil {
					b.Winner(w)
				}
				continue
			}
			rec, reason := t.record(g, row, doc, last)
			if rec == nil {
				t.drop(ctx, reason, page.Number, row)
				continue
			}
			if g.paceOnly() && b.Len() == 0 {
				rec.Set(record.KeyRaceType, record.RaceTypeTimePerKm)
			}
			last, _ = rec.Position()
			b.Add(rec)
		}
	}
	return b.Set(), nil
}

func (t *Table) record(g *grid, row extract.Row, doc Document, last int) (*record.Record, string) {
	if normalize.IsDisqualified(row.Text()) {
		return nil, dropDisqualified
	}
	cells := g.cells(row)

	raceTime := firstTime(cells[fieldTime])
	pace := firstTime(cells[fieldPace])
	if g.paceOnly() {
		raceTime, pace = pace, ""
	}
	if raceTime == "" {
		return nil, dropNoTime
	}

	var lastName, firstName string
	if g.has(fieldName) {
		lastName, firstName = t.split(normalize.CleanName(cells[fieldName]))
	} else {
		lastName = normalize.CleanName(cells[fieldLast])
		firstName = normalize.CleanName(cells[fieldFirst])
	}
	if lastName == "" {
		return nil, dropNoName
	}

	// ex aequo and restarted ranks are kept as printed
	pos := last + 1
	if n, ok := leadingInt(cells[fieldPos]); ok {
		pos = n
	}

	rec := record.NewParticipant(pos, lastName, firstName, raceTime)
	rec.Set(record.KeyTeam, normalize.CollapseSpaces(cells[fieldTeam]))
	if v, err := normalize.ParseSpeed(cells[fieldSpeed]); err == nil {
		rec.Set(record.KeySpeed, normalize.FormatDecimal(v, 2, normalize.Invariant))
	}
	if sex, ok := normalize.NormalizeSex(cells[fieldSex]); ok {
		rec.Set(record.KeySex, sex)
	}
	if n, ok := leadingInt(cells[fieldPosSex]); ok {
		rec.Set(record.KeyPositionSex, strconv.Itoa(n))
	}
	if cat, ok := normalize.NormalizeCategory(cells[fieldCategory]); ok {
		rec.Set(record.KeyCategory, cat)
	}
	if n, ok := leadingInt(cells[fieldPosCat]); ok {
		rec.Set(record.KeyPositionCat, strconv.Itoa(n))
	}
	rec.Set(record.KeyTimePerKm, pace)
	if isRosterMember(doc.Members, firstName+" "+lastName) {
		rec.Set(record.KeyIsMember, "true")
	}
	return rec, ""
}

func (t *Table) split(name string) (last, first string) {
	switch t.order {
	case lastFirst:
		return normalize.SplitLastFirst(name)
	case firstUpper:
		return normalize.SplitFirstUpper(name)
	default:
		return normalize.SplitUpperFirst(name)
	}
}

// winner reads a "<marker> : NAME time" line.
func (t *Table) winner(row extract.Row) *record.Record {
	if t.winnerMarker == "" {
		return nil
	}
	marker := strings.Fields(normalize.Fold(t.winnerMarker))
	rest, ok := after(row.Tokens, marker)
	if !ok {
		return nil
	}
	var parts []string
	raceTime := ""
	for _, tok := range rest {
		if raceTime == "" && normalize.IsTimeLike(tok.Text) {
			raceTime = canonicalTime(tok.Text)
		}
		parts = append(parts, tok.Text)
	}
	name := normalize.CleanName(strings.TrimLeft(strings.Join(parts, " "), ": "))
	lastName, firstName := t.split(name)
	if raceTime == "" || lastName == "" {
		return nil
	}
	return record.NewWinner(lastName, firstName, raceTime)
}

func (t *Table) drop(ctx context.Context, reason string, page int, row extract.Row) {
	metrics.RecordRowDropped(reason)
	t.log.Debug(ctx, "row dropped",
		logger.String("format", t.name),
		logger.String("reason", reason),
		logger.Int("page", page),
		logger.Int("row", row.Index))
}

// anchors locates the layout's columns in a header row. Longer labels are
// matched first so "Pl. Cat" is not taken for "Pl.".
func (t *Table) anchors(row extract.Row) []anchor {
	type candidate struct {
		field field
		label string
		words int
	}
	var cands []candidate
	for _, c := range t.columns {
		for _, l := range c.labels {
			folded := normalize.Fold(l)
			cands = append(cands, candidate{field: c.field, label: folded, words: len(strings.Fields(folded))})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].words > cands[j].words })

	used := make([]bool, len(row.Tokens))
	seen := make(map[field]bool)
	var out []anchor
	for _, c := range cands {
		if seen[c.field] {
			continue
		}
		i, j, ok := matchLabel(row.Tokens, used, c.label)
		if !ok {
			continue
		}
		for k := i; k <= j; k++ {
			used[k] = true
		}
		seen[c.field] = true
		out = append(out, anchor{field: c.field, x: row.Tokens[i].X})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out
}

// matchLabel finds consecutive unused tokens whose folded text equals label.
func matchLabel(tokens []extract.Token, used []bool, label string) (int, int, bool) {
	for i := range tokens {
		var sb strings.Builder
		for j := i; j < len(tokens) && !used[j]; j++ {
			if j > i {
				sb.WriteByte(' ')
			}
			sb.WriteString(normalize.Fold(tokens[j].Text))
			got := sb.String()
			if got == label {
				return i, j, true
			}
			if len(got) >= len(label) {
				break
			}
		}
	}
	return 0, 0, false
}

// after returns the tokens following the folded marker words.
func after(tokens []extract.Token, marker []string) ([]extract.Token, bool) {
	if len(marker) == 0 {
		return nil, false
	}
	for i := 0; i+len(marker) <= len(tokens); i++ {
		ok := true
		for k, w := range marker {
			if strings.TrimRight(normalize.Fold(tokens[i+k].Text), ":") != w {
				ok = false
				break
			}
		}
		if ok {
			return tokens[i+len(marker):], true
		}
	}
	return nil, false
}

type anchor struct {
	field field
	x     float64
}

// grid assigns each token to the right-most column anchor at or left of it.
type grid struct {
	anchors []anchor
	tol     float64
}

func newGrid(anchors []anchor) *grid {
	tol := maxAnchorTolerance
	for i := 1; i < len(anchors); i++ {
		if gap := (anchors[i].x - anchors[i-1].x) / 2; gap < tol {
			tol = gap
		}
	}
	return &grid{anchors: anchors, tol: tol}
}

func (g *grid) has(f field) bool {
	for _, a := range g.anchors {
		if a.field == f {
			return true
		}
	}
	return false
}

func (g *grid) paceOnly() bool {
	return !g.has(fieldTime) && g.has(fieldPace)
}

func (g *grid) cells(row extract.Row) map[field]string {
	parts := make(map[field][]string)
	for _, tok := range row.Tokens {
		idx := 0
		for i, a := range g.anchors {
			if a.x > tok.X+g.tol {
				break
			}
			idx = i
		}
		f := g.anchors[idx].field
		parts[f] = append(parts[f], tok.Text)
	}
	out := make(map[field]string, len(parts))
	for f, p := range parts {
		out[f] = strings.Join(p, " ")
	}
	return out
}

// firstTime returns the first time-like word of s in h:mm:ss form.
func firstTime(s string) string {
	for _, w := range strings.Fields(s) {
		if normalize.IsTimeLike(w) {
			return canonicalTime(w)
		}
	}
	return ""
}

func canonicalTime(s string) string {
	d, err := normalize.ParseTime(s)
	if err != nil {
		return ""
	}
	return normalize.FormatDuration(d)
}

// leadingInt parses "12", "12." or "12/340".
func leadingInt(s string) (int, bool) {
	w := strings.Fields(s)
	if len(w) == 0 {
		return 0, false
	}
	digits := w[0]
	if i := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = digits[:i]
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
