package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownEmployeeSentinel is the reserved "unknown" employee-count maximum.
const UnknownEmployeeSentinel = 999_999_999

// emptyLiterals are cell values that count as absent even though non-empty.
// Exports serialize empty collections and nulls as these literal strings.
var emptyLiterals = map[string]bool{
	"[]": true, "{}": true, "null": true, "None": true,
}

// HasValue reports presence of a cell: non-empty and not an empty-collection
// or null literal. Bracketed list cells count as present only when the list
// has elements.
func HasValue(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" || emptyLiterals[s] {
		return false
	}
	return true
}

// ParseBool normalizes TRUE/FALSE-like cell values. The third return is
// false for empty or unrecognized tokens.
func ParseBool(cell string) (bool, bool) {
	switch strings.ToUpper(strings.TrimSpace(cell)) {
	case "TRUE", "1", "J", "JA", "Y", "YES":
		return true, true
	case "FALSE", "0", "N", "NEE", "NO":
		return false, true
	default:
		return false, false
	}
}

// ParseInt coerces a numeric cell to an int. Some exports store integers as
// float text, so the value goes through a float parse.
func ParseInt(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// ParseFloat coerces a numeric cell to a float64.
func ParseFloat(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// monthNames maps the localized month spellings used by the registry's
// "day monthname year" date form.
var monthNames = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"maart":     time.March,
	"april":     time.April,
	"mei":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augustus":  time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var (
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	compactDatePattern = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	wordedDatePattern  = regexp.MustCompile(`^(\d{1,2})\s+([a-zà-ÿ]+)\s+(\d{4})$`)
)

// ParseDate parses a founding-date cell under its three known encodings:
// ISO (2006-01-02), compact (20060102) and the localized worded form
// ("11 maart 2019"). Returns false for anything else.
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := compactDatePattern.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := wordedDatePattern.FindStringSubmatch(strings.ToLower(s)); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return validDate(year, month, day)
	}
	return time.Time{}, false
}

func buildDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	return validDate(year, time.Month(month), day)
}

// validDate builds a UTC date and rejects overflowed components, which
// time.Date would otherwise silently normalize.
func validDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParseCodeCell splits a classification-code cell into its code set. Cells
// encode either one code, a delimiter-joined list, or a bracketed list with
// quoted elements.
func ParseCodeCell(cell string) map[string]struct{} {
	out := make(map[string]struct{})
	s := strings.TrimSpace(cell)
	if s == "" {
		return out
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	for _, part := range strings.Split(s, ",") {
		code := strings.Trim(strings.TrimSpace(part), `'"`)
		if code != "" {
			out[code] = struct{}{}
		}
	}
	return out
}
