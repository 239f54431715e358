package a2a

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  domain.ParsedDate
	}{
		{"iso day", "1852-03-14", domain.ParsedDate{Year: 1852, Month: 3, Day: 14, Precision: domain.PrecisionDay, Original: "1852-03-14"}},
		{"iso day with time", "1901-12-01T00:00:00", domain.ParsedDate{Year: 1901, Month: 12, Day: 1, Precision: domain.PrecisionDay, Original: "1901-12-01T00:00:00"}},
		{"iso month", "1790-07", domain.ParsedDate{Year: 1790, Month: 7, Precision: domain.PrecisionMonth, Original: "1790-07"}},
		{"bare year", "1811", domain.ParsedDate{Year: 1811, Precision: domain.PrecisionYear, Original: "1811"}},
		{"year in text", "anno 1723", domain.ParsedDate{Year: 1723, Precision: domain.PrecisionYear, Original: "anno 1723"}},
		{"circa", "circa 1750", domain.ParsedDate{Year: 1750, Precision: domain.PrecisionCirca, Original: "circa 1750"}},
		{"ca. upper case", "CA. 1680", domain.ParsedDate{Year: 1680, Precision: domain.PrecisionCirca, Original: "CA. 1680"}},
		{"range", "1811-1820", domain.ParsedDate{Year: 1811, Precision: domain.PrecisionRange, Original: "1811-1820"}},
		{"dutch day", "3-11-1860", domain.ParsedDate{Year: 1860, Month: 11, Day: 3, Precision: domain.PrecisionDay, Original: "3-11-1860"}},
		{"dutch day slashes", "25/12/1799", domain.ParsedDate{Year: 1799, Month: 12, Day: 25, Precision: domain.PrecisionDay, Original: "25/12/1799"}},
		{"invalid month falls back to year", "1850-13-40", domain.ParsedDate{Year: 1850, Precision: domain.PrecisionYear, Original: "1850-13-40"}},
		{"out of window", "1234", domain.ParsedDate{Precision: domain.PrecisionUnknown, Original: "1234"}},
		{"text", "onbekend", domain.ParsedDate{Precision: domain.PrecisionUnknown, Original: "onbekend"}},
		{"empty", "   ", domain.ParsedDate{Precision: domain.PrecisionUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.input))
		})
	}
}

func TestNormalizeDate_ISODayProperty(t *testing.T) {
	for _, y := range []int{1500, 1650, 1811, 1999, 2024} {
		for _, m := range []int{1, 6, 12} {
			for _, d := range []int{1, 15, 28} {
				s := formatISO(y, m, d)
				got := NormalizeDate(s)
				assert.Equal(t, domain.PrecisionDay, got.Precision, s)
				assert.Equal(t, [3]int{y, m, d}, [3]int{got.Year, got.Month, got.Day}, s)
			}
		}
	}
}

func TestNormalizeDate_CircaProperty(t *testing.T) {
	for _, s := range []string{"circa 1700", "Circa1812", "ca. 1655", "geboren ca. 1801 te Zwolle", "CIRCA 1900"} {
		got := NormalizeDate(s)
		assert.Equal(t, domain.PrecisionCirca, got.Precision, s)
		assert.Equal(t, s, got.Original)
	}
	assert.Equal(t, 1801, NormalizeDate("geboren ca. 1801 te Zwolle").Year)
}

func TestNormalizeDateParts(t *testing.T) {
	tests := []struct {
		name             string
		year, month, day string
		want             domain.ParsedDate
	}{
		{"full", "1850", "4", "9", domain.ParsedDate{Year: 1850, Month: 4, Day: 9, Precision: domain.PrecisionDay}},
		{"month only", "1850", "04", "", domain.ParsedDate{Year: 1850, Month: 4, Precision: domain.PrecisionMonth}},
		{"year only", " 1850 ", "", "", domain.ParsedDate{Year: 1850, Precision: domain.PrecisionYear}},
		{"day without month", "1850", "", "9", domain.ParsedDate{Year: 1850, Precision: domain.PrecisionYear}},
		{"bad month", "1850", "13", "1", domain.ParsedDate{Year: 1850, Precision: domain.PrecisionYear}},
		{"non numeric year", "achttien", "1", "1", domain.ParsedDate{Precision: domain.PrecisionUnknown}},
		{"year too early", "1200", "1", "1", domain.ParsedDate{Precision: domain.PrecisionUnknown}},
		{"year too late", "2100", "", "", domain.ParsedDate{Precision: domain.PrecisionUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDateParts(tt.year, tt.month, tt.day))
		})
	}
}

func TestParseAge(t *testing.T) {
	assert.Equal(t, 28, *parseAge("28"))
	assert.Equal(t, 3, *parseAge(" 3 jaar"))
	assert.Nil(t, parseAge("onbekend"))
	assert.Nil(t, parseAge(""))
}

func formatISO(y, m, d int) string {
	return domain.ParsedDate{Year: y, Month: m, Day: d, Precision: domain.PrecisionDay}.String()
}
