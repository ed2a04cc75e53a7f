// Package tag models image tags of the form YYYYMMDD-N.
//
// A tag is either Dated (eight date digits, "-", and a sequence number) or
// Opaque (anything else: "latest", "stable", "v1.2.3", ...). Only Dated tags
// take part in allocation and retention ranking; Opaque tags are carried
// through listings untouched.
package tag

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// DayLayout is the time layout of the date half of a dated tag.
const DayLayout = "20060102"

var datedRe = regexp.MustCompile(`^(\d{8})-(\d+)$`)

// Tag is an immutable image tag value.
type Tag struct {
	raw   string
	ymd   int       // date digits as a number; orders like the calendar
	day   time.Time // zero when the digits are not a real calendar day
	seq   int
	dated bool
}

// New returns the Dated tag for the calendar day of t and sequence seq.
// The day is taken in t's location and normalized to midnight UTC.
func New(t time.Time, seq int) Tag {
	day := Day(t)
	return Tag{
		raw:   fmt.Sprintf("%s-%d", day.Format(DayLayout), seq),
		ymd:   ymdOf(day),
		day:   day,
		seq:   seq,
		dated: true,
	}
}

// Opaque wraps s as an Opaque tag without inspecting it.
func Opaque(s string) Tag {
	return Tag{raw: s}
}

// Parse classifies s. It never fails: every string of eight digits, "-",
// and digits is Dated, anything else is Opaque. The sequence is compared as
// a number, so "20240101-05" is sequence 5. The date digits are not checked
// against the calendar. The original string is kept, so Format(Parse(s)) == s
// for every input. A sequence too large for an int is Opaque.
func Parse(s string) Tag {
	m := datedRe.FindStringSubmatch(s)
	if m == nil {
		return Opaque(s)
	}

	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Opaque(s)
	}
	ymd, _ := strconv.Atoi(m[1])

	t := Tag{raw: s, ymd: ymd, seq: seq, dated: true}
	if day, err := time.Parse(DayLayout, m[1]); err == nil {
		t.day = day
	}
	return t
}

// ParseAll parses every string in ss, preserving order.
func ParseAll(ss []string) []Tag {
	tags := make([]Tag, 0, len(ss))
	for _, s := range ss {
		tags = append(tags, Parse(s))
	}
	return tags
}

// Format renders t exactly as it was created or discovered. Tags from New
// render as an 8-digit date, "-", and the sequence without padding.
func Format(t Tag) string {
	return t.raw
}

// String implements fmt.Stringer.
func (t Tag) String() string { return Format(t) }

// IsDated reports whether t follows the YYYYMMDD-N scheme.
func (t Tag) IsDated() bool { return t.dated }

// Date returns the calendar day of a Dated tag (midnight UTC). It is the
// zero time for an Opaque tag and for date digits that name no real day.
func (t Tag) Date() time.Time { return t.day }

// Sequence returns the per-day sequence of a Dated tag, or 0.
func (t Tag) Sequence() int { return t.seq }

// OnDay reports whether t is Dated and belongs to the calendar day of d.
func (t Tag) OnDay(d time.Time) bool {
	return t.dated && t.ymd == ymdOf(Day(d))
}

// Day truncates t to its calendar day in t's own location and returns that
// day as midnight UTC, the representation Dated tags use internally.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ymdOf(day time.Time) int {
	y, m, d := day.Date()
	return y*10000 + int(m)*100 + d
}

// Compare orders two Dated tags by date digits, then sequence. It returns
// -1, 0 or +1 and ok=true; if either tag is Opaque the tags are not
// comparable and ok is false.
func Compare(a, b Tag) (order int, ok bool) {
	if !a.dated || !b.dated {
		return 0, false
	}
	switch {
	case a.ymd < b.ymd:
		return -1, true
	case a.ymd > b.ymd:
		return 1, true
	case a.seq < b.seq:
		return -1, true
	case a.seq > b.seq:
		return 1, true
	}
	return 0, true
}

// Dated returns the Dated tags of tags in input order.
func Dated(tags []Tag) []Tag {
	var out []Tag
	for _, t := range tags {
		if t.dated {
			out = append(out, t)
		}
	}
	return out
}

// SortDatedDesc returns the Dated tags of tags, newest first. The input is
// not modified. Duplicates are kept.
func SortDatedDesc(tags []Tag) []Tag {
	out := Dated(tags)
	sort.SliceStable(out, func(i, j int) bool {
		c, _ := Compare(out[i], out[j])
		return c > 0
	})
	return out
}

// MaxSequence returns the highest sequence among the Dated tags of day, or 0
// if there are none.
func MaxSequence(tags []Tag, day time.Time) int {
	max := 0
	for _, t := range tags {
		if t.OnDay(day) && t.seq > max {
			max = t.seq
		}
	}
	return max
}
