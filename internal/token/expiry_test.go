package token

import (
	"testing"
	"time"
)

func TestBuildExpiryClampsToEndOfMonth(t *testing.T) {
	cases := []struct {
		name   string
		now    time.Time
		months int
		want   time.Time
	}{
		{
			name:   "jan 31 plus one month in a leap year",
			now:    time.Date(2020, time.January, 31, 12, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2020, time.February, 29, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "jan 31 plus one month in a non-leap year",
			now:    time.Date(2021, time.January, 31, 12, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2021, time.February, 28, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "may 31 plus one month clamps to june 30",
			now:    time.Date(2021, time.May, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2021, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "mid-month addition keeps the day",
			now:    time.Date(2021, time.March, 15, 9, 30, 0, 0, time.UTC),
			months: 6,
			want:   time.Date(2021, time.September, 15, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "year rollover",
			now:    time.Date(2021, time.October, 31, 0, 0, 0, 0, time.UTC),
			months: 4,
			want:   time.Date(2022, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "aug 31 plus six months keeps the last of february",
			now:    time.Date(2023, time.August, 31, 23, 59, 59, 0, time.UTC),
			months: 6,
			want:   time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildExpiry(tc.now, tc.months)
			if !got.Equal(tc.want) {
				t.Fatalf("BuildExpiry(%v, %d) = %v, want %v", tc.now, tc.months, got, tc.want)
			}
		})
	}
}
