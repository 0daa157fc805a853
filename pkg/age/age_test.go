package age

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		ref  time.Time
		want string
	}{
		{"two months", date(2024, 6, 1), date(2024, 8, 1), "2 months"},
		{"three years four months", date(2021, 1, 15), date(2024, 6, 1), "3 years 4 months"},
		{"nine years", date(2015, 1, 1), date(2024, 6, 1), "9 years"},
		{"same day", date(2024, 6, 1), date(2024, 6, 1), "0 months"},
		{"day before month boundary", date(2024, 5, 15), date(2024, 6, 14), "0 months"},
		{"ten months", date(2023, 7, 2), date(2024, 6, 1), "10 months"},
		{"exactly one year", date(2023, 6, 1), date(2024, 6, 1), "1 years 0 months"},
		{"one day short of a year", date(2023, 6, 2), date(2024, 6, 1), "11 months"},
		{"exactly five years", date(2019, 6, 1), date(2024, 6, 1), "5 years"},
		{"one day short of five", date(2019, 6, 2), date(2024, 6, 1), "4 years 11 months"},
		{"leap day birthday", date(2020, 2, 29), date(2024, 2, 28), "3 years 11 months"},
		{"invalid future dob", date(2024, 6, 2), date(2024, 6, 1), InvalidDOB},
		{"invalid next year", date(2025, 1, 1), date(2024, 12, 31), InvalidDOB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Display(tt.dob, tt.ref); got != tt.want {
				t.Errorf("Display(%s, %s) = %q, want %q",
					tt.dob.Format("2006-01-02"), tt.ref.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestDisplay_IgnoresTimeOfDay(t *testing.T) {
	dob := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	ref := time.Date(2024, 6, 1, 0, 1, 0, 0, time.UTC)
	if got := Display(dob, ref); got != "0 months" {
		t.Errorf("expected same-day comparison, got %q", got)
	}
}
