package token

import "time"

// BuildExpiry adds months calendar months to now. The addition is
// anchored to the first of the month so that a long source month never
// spills into the month after the intended target; the original
// day-of-month is then restored, clamped to the last day of the target
// month when it does not exist there (Jan 31 + 1 month = Feb 28/29).
func BuildExpiry(now time.Time, months int) time.Time {
	anchored := time.Date(now.Year(), now.Month(), 1,
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location(),
	).AddDate(0, months, 0)

	day := now.Day()
	if last := lastDayOfMonth(anchored); day > last {
		day = last
	}

	return time.Date(anchored.Year(), anchored.Month(), day,
		anchored.Hour(), anchored.Minute(), anchored.Second(), anchored.Nanosecond(), anchored.Location(),
	)
}

func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).
		AddDate(0, 1, -1).Day()
}
