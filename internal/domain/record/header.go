package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HeaderMarker is the literal every header record carries in its second field.
const HeaderMarker = "Header"

// DateLayout is the header date format.
const DateLayout = "2006-01-02"

// Header describes the race a result file belongs to.
type Header struct {
	Format     string
	RaceName   string
	Date       time.Time
	Location   string
	Category   string
	DistanceKm int
}

// String encodes h as
// HEADER;Header;<format>;<raceName>;<yyyy-mm-dd>;<location>;<category>;<distanceKm>.
func (h Header) String() string {
	date := ""
	if !h.Date.IsZero() {
		date = h.Date.Format(DateLayout)
	}
	dist := ""
	if h.DistanceKm > 0 {
		dist = strconv.Itoa(h.DistanceKm)
	}
	return strings.Join([]string{
		string(KindHeader), HeaderMarker,
		sanitize(h.Format), sanitize(h.RaceName), date,
		sanitize(h.Location), sanitize(h.Category), dist,
	}, Separator)
}

// IsHeader reports whether line passes the structural header check:
// it contains the marker and has more than two fields.
func IsHeader(line string) bool {
	return strings.Contains(line, HeaderMarker) && FieldCount(line) > 2
}

// ParseHeader decodes a header line. Unknown or missing trailing fields are left empty.
func ParseHeader(line string) (Header, error) {
	if !IsHeader(line) {
		return Header{}, fmt.Errorf("%w: %q", ErrNotHeader, line)
	}
	f := strings.Split(line, Separator)
	get := func(i int) string {
		if i < len(f) {
			return strings.TrimSpace(f[i])
		}
		return ""
	}
	h := Header{Format: get(2), RaceName: get(3), Location: get(5), Category: get(6)}
	if d := get(4); d != "" {
		if t, err := time.Parse(DateLayout, d); err == nil {
			h.Date = t
		}
	}
	if d := get(7); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			h.DistanceKm = n
		}
	}
	return h, nil
}
