package record

import "sort"

// Reserved keys of a Set.
const (
	HeaderKey           = 0
	WinnerKey           = 1
	FirstParticipantKey = 2
)

// Set maps record keys to encoded lines. Key 0 is the header, key 1 the
// optional winner line and keys from 2 on are participants.
type Set map[int]string

// Keys returns the keys in ascending order.
func (s Set) Keys() []int {
	keys := make([]int, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Header returns the decoded header record.
func (s Set) Header() (Header, error) {
	return ParseHeader(s[HeaderKey])
}

// Participants returns the participant lines in key order.
func (s Set) Participants() []string {
	var out []string
	for _, k := range s.Keys() {
		if k >= FirstParticipantKey {
			out = append(out, s[k])
		}
	}
	return out
}

// Builder assigns keys while a parser emits records.
type Builder struct {
	set  Set
	next int
}

// NewBuilder starts a set with the given header.
func NewBuilder(h Header) *Builder {
	return &Builder{set: Set{HeaderKey: h.String()}, next: FirstParticipantKey}
}

// Winner stores the best-time line at key 1. Later calls replace it.
func (b *Builder) Winner(r *Record) {
	b.set[WinnerKey] = r.String()
}

// Add appends a participant line.
func (b *Builder) Add(r *Record) {
	b.set[b.next] = r.String()
	b.next++
}

// Len returns the number of participant lines added.
func (b *Builder) Len() int {
	return b.next - FirstParticipantKey
}

// Set returns the built set.
func (b *Builder) Set() Set {
	return b.set
}
