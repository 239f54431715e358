package a2a

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

// Plausible year window for bare years and composite dates.
const (
	minYear = 1500
	maxYear = 2099
)

var (
	fourDigitsRe = regexp.MustCompile(`\d{4}`)
	rangeRe      = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	isoDayRe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	isoMonthRe   = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	dutchDayRe   = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
	bareYearRe   = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)
	leadingIntRe = regexp.MustCompile(`^\s*(\d+)`)
)

// NormalizeDate parses a free-text date into a precision-tagged value.
//
// Patterns are tried in order: circa marker, year range, ISO day,
// ISO month, Dutch day-month-year, bare year. Unrecognised input yields
// PrecisionUnknown with Year 0; the caller applies the fallback year.
// Original is kept whenever the input was non-empty.
func NormalizeDate(s string) domain.ParsedDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.ParsedDate{Precision: domain.PrecisionUnknown}
	}
	d := domain.ParsedDate{Original: s}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "circa") || strings.Contains(lower, "ca.") {
		if m := fourDigitsRe.FindString(s); m != "" {
			d.Year = atoi(m)
			d.Precision = domain.PrecisionCirca
			return d
		}
	}

	if m := rangeRe.FindStringSubmatch(s); m != nil {
		d.Year = atoi(m[1])
		d.Precision = domain.PrecisionRange
		return d
	}

	if m := isoDayRe.FindStringSubmatch(s); m != nil {
		if month, day := atoi(m[2]), atoi(m[3]); validMonth(month) && validDay(day) {
			d.Year, d.Month, d.Day = atoi(m[1]), month, day
			d.Precision = domain.PrecisionDay
			return d
		}
	}

	if m := isoMonthRe.FindStringSubmatch(s); m != nil {
		if month := atoi(m[2]); validMonth(month) {
			d.Year, d.Month = atoi(m[1]), month
			d.Precision = domain.PrecisionMonth
			return d
		}
	}

	if m := dutchDayRe.FindStringSubmatch(s); m != nil {
		if month, day := atoi(m[2]), atoi(m[1]); validMonth(month) && validDay(day) {
			d.Year, d.Month, d.Day = atoi(m[3]), month, day
			d.Precision = domain.PrecisionDay
			return d
		}
	}

	if m := bareYearRe.FindStringSubmatch(s); m != nil {
		d.Year = atoi(m[1])
		d.Precision = domain.PrecisionYear
		return d
	}

	d.Precision = domain.PrecisionUnknown
	return d
}

// NormalizeDateParts builds a date from separate year, month and day
// fields. A missing, non-numeric or implausible year yields PrecisionUnknown.
// Month and day are dropped when out of range; a day without a month is
// ignored.
func NormalizeDateParts(year, month, day string) domain.ParsedDate {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < minYear || y > maxYear {
		return domain.ParsedDate{Precision: domain.PrecisionUnknown}
	}
	d := domain.ParsedDate{Year: y, Precision: domain.PrecisionYear}

	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || !validMonth(m) {
		return d
	}
	d.Month = m
	d.Precision = domain.PrecisionMonth

	dd, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || !validDay(dd) {
		return d
	}
	d.Day = dd
	d.Precision = domain.PrecisionDay
	return d
}

// parseAge reads the leading integer of an age field ("28", "28 jaar").
func parseAge(s string) *int {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &age
}

func validMonth(m int) bool { return m >= 1 && m <= 12 }
func validDay(d int) bool   { return d >= 1 && d <= 31 }

// atoi is only called on regex-validated digit strings.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
