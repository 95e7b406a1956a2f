package ledger

import "time"

// PeriodStart returns the start of the calendar period containing now,
// in now's location.
func PeriodStart(period Period, now time.Time) time.Time {
	switch period {
	case PeriodDaily:
		return startOfDay(now)
	case PeriodWeekly:
		// Weeks start Sunday.
		day := startOfDay(now)
		return day.AddDate(0, 0, -int(day.Weekday()))
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return startOfDay(now)
	}
}

// PeriodEnd returns the start of the next calendar period after the one
// containing now.
func PeriodEnd(period Period, now time.Time) time.Time {
	start := PeriodStart(period, now)
	switch period {
	case PeriodDaily:
		return start.AddDate(0, 0, 1)
	case PeriodWeekly:
		return start.AddDate(0, 0, 7)
	case PeriodMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysInMonth returns the number of calendar days in t's month.
func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
