package repository

import "time"

// Period is a lookback window selector. Values match the range tokens the
// market-data provider understands, so they pass through unchanged.
type Period string

const (
	P1Mo Period = "1mo"
	P6Mo Period = "6mo"
	PYTD Period = "ytd"
	P1Y  Period = "1y"
	P5Y  Period = "5y"
)

// IsValidPeriod returns true if p is a supported lookback period.
func IsValidPeriod(p Period) bool {
	switch p {
	case P1Mo, P6Mo, PYTD, P1Y, P5Y:
		return true
	default:
		return false
	}
}

// DefaultPeriod returns the default lookback period.
func DefaultPeriod() Period { return P5Y }

// NormalizePeriod converts a raw string to a valid period (or default).
func NormalizePeriod(s string) Period {
	if s == "" {
		return DefaultPeriod()
	}
	p := Period(s)
	if IsValidPeriod(p) {
		return p
	}
	return DefaultPeriod()
}

// Range resolves the period to an absolute [from, to] pair ending at now.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	switch p {
	case P1Mo:
		return now.AddDate(0, -1, 0), now
	case P6Mo:
		return now.AddDate(0, -6, 0), now
	case PYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), now
	case P1Y:
		return now.AddDate(-1, 0, 0), now
	case P5Y:
		return now.AddDate(-5, 0, 0), now
	default:
		return now.AddDate(-5, 0, 0), now
	}
}
