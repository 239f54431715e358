package domain

import "fmt"

// Precision describes how much of a date is actually known.
type Precision string

// Date precisions.
const (
	PrecisionDay     Precision = "day"
	PrecisionMonth   Precision = "month"
	PrecisionYear    Precision = "year"
	PrecisionCirca   Precision = "circa"
	PrecisionRange   Precision = "range"
	PrecisionUnknown Precision = "unknown"
)

// ParsedDate is a precision-tagged date. Zero Month or Day means absent.
type ParsedDate struct {
	Year      int
	Month     int
	Day       int
	Precision Precision

	// Original is the free-text input the date was derived from.
	Original string
}

// Known reports whether a year was recovered.
func (d ParsedDate) Known() bool {
	return d.Year != 0 && d.Precision != PrecisionUnknown
}

// String renders the date according to its precision.
func (d ParsedDate) String() string {
	switch d.Precision {
	case PrecisionCirca:
		return fmt.Sprintf("ca. %d", d.Year)
	case PrecisionRange:
		if d.Original != "" {
			return d.Original
		}
		return fmt.Sprintf("%d", d.Year)
	case PrecisionYear:
		return fmt.Sprintf("%d", d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%d-%02d", d.Year, d.Month)
	case PrecisionDay:
		return fmt.Sprintf("%d-%02d-%02d", d.Year, d.Month, d.Day)
	default:
		return "Unknown"
	}
}
