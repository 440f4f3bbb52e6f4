package media

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Year is an optional release year. The zero value is NoYear.
type Year struct {
	value int
	set   bool
}

// NoYear is the absent year.
var NoYear = Year{}

// YearOf returns a present year.
func YearOf(v int) Year {
	return Year{value: v, set: true}
}

// Value returns the year and whether it is present.
func (y Year) Value() (int, bool) {
	return y.value, y.set
}

// Known reports whether the year is present.
func (y Year) Known() bool { return y.set }

// Int returns the year, or 0 when absent.
func (y Year) Int() int { return y.value }

func (y Year) String() string {
	if !y.set {
		return "-"
	}
	return strconv.Itoa(y.value)
}

// Equal reports whether both years are absent or both hold the same value.
func (y Year) Equal(other Year) bool {
	return y.set == other.set && y.value == other.value
}

// Conflicts reports whether both years are present and differ.
func (y Year) Conflicts(other Year) bool {
	return y.set && other.set && y.value != other.value
}

func (y Year) MarshalJSON() ([]byte, error) {
	if !y.set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.value)), nil
}

func (y *Year) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*y = NoYear
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = YearOf(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseYear(s)
	if err != nil {
		return err
	}
	*y = parsed
	return nil
}

// ParseYear parses a decimal year; blank input yields NoYear.
func ParseYear(value string) (Year, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return NoYear, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return NoYear, err
	}
	return YearOf(n), nil
}

var (
	parenYearPattern    = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)
	trailingYearPattern = regexp.MustCompile(`\s+-\s+(\d{4})\s*$`)
)

// SplitTitleYear extracts a trailing "(YYYY)" or " - YYYY" from a raw title.
// Titles without such a suffix are returned unchanged with NoYear.
func SplitTitleYear(raw string) (string, Year) {
	for _, pattern := range []*regexp.Regexp{parenYearPattern, trailingYearPattern} {
		if m := pattern.FindStringSubmatchIndex(raw); m != nil {
			n, err := strconv.Atoi(raw[m[2]:m[3]])
			if err != nil {
				continue
			}
			return strings.TrimSpace(raw[:m[0]]), YearOf(n)
		}
	}
	return strings.TrimSpace(raw), NoYear
}
