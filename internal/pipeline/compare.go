package pipeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Comparator is a total ordering over two field values, returning -1, 0 or 1.
type Comparator func(a, b interface{}) int

// versionPattern extracts the first digit run, optionally followed by a dot
// and more digits ("fw-10.2-rc" -> "10.2").
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ComparatorFor maps a comparison kind to its ordering function. Dispatch is
// total: every declared kind resolves to exactly one comparator, and any
// undeclared kind falls back to lexical ordering.
func ComparatorFor(kind ComparisonKind) Comparator {
	switch kind {
	case KindNumeric:
		return compareNumeric
	case KindVersion:
		return compareVersion
	case KindDateTime:
		return compareDateTime
	case KindLexical:
		return compareLexical
	default:
		return compareLexical
	}
}

// compareNumeric orders by parsed numeric value. A value that fails to parse
// is treated as +Inf so it sorts after every parseable value ascending; two
// unparseable values compare equal. NaN never enters the ordering.
func compareNumeric(a, b interface{}) int {
	av, aok := Numeric(a)
	if !aok {
		av = math.Inf(1)
	}
	bv, bok := Numeric(b)
	if !bok {
		bv = math.Inf(1)
	}
	switch {
	case !aok && !bok:
		return 0
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// compareVersion orders by the numeric component embedded in the string, so
// "fw-9.9" sorts before "fw-10.2". When extraction fails for either side the
// comparison falls back to lexical ordering of the raw strings.
func compareVersion(a, b interface{}) int {
	av, aok := versionKey(a)
	bv, bok := versionKey(b)
	if !aok || !bok {
		return compareLexical(a, b)
	}
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

func versionKey(v interface{}) (float64, bool) {
	m := versionPattern.FindString(Text(v))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// compareDateTime orders by instant using the fixed TimeLayout format. An
// unparseable value is treated as the zero instant and sorts first ascending.
func compareDateTime(a, b interface{}) int {
	at := ParseTime(a)
	bt := ParseTime(b)
	switch {
	case at.Before(bt):
		return -1
	case at.After(bt):
		return 1
	default:
		return 0
	}
}

// ParseTime parses a date-time field value in the fixed TimeLayout format.
// Malformed input yields the zero time, the documented earliest-instant
// fallback.
func ParseTime(v interface{}) time.Time {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(Text(v)))
	if err != nil {
		return time.Time{}
	}
	return t
}

// compareLexical orders case-insensitively. Values that differ only in case
// are left tied; the sort's stability keeps their input order.
func compareLexical(a, b interface{}) int {
	return strings.Compare(strings.ToLower(Text(a)), strings.ToLower(Text(b)))
}
