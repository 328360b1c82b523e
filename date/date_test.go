package date

import "testing"

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestDaysSince(t *testing.T) {
	testCases := []struct {
		from, to Date
		want     int
	}{
		{New(2021, 11, 22), New(2021, 11, 30), 8},
		{New(2021, 11, 30), New(2021, 12, 18), 18},
		{New(2024, 2, 28), New(2024, 3, 1), 2},
		{New(2021, 12, 18), New(2021, 11, 22), -26},
		{New(2025, 1, 1), New(2025, 1, 1), 0},
	}
	for _, tc := range testCases {
		if got := tc.to.DaysSince(tc.from); got != tc.want {
			t.Errorf("%v.DaysSince(%v) = %d, want %d", tc.to, tc.from, got, tc.want)
		}
	}
}

func TestStartOf(t *testing.T) {
	d := New(2021, 11, 22)
	testCases := []struct {
		period Period
		want   Date
	}{
		{Daily, d},
		{Weekly, New(2021, 11, 22)},
		{Monthly, New(2021, 11, 1)},
		{Quarterly, New(2021, 10, 1)},
		{Yearly, New(2021, 1, 1)},
	}
	for _, tc := range testCases {
		if got := d.StartOf(tc.period); got != tc.want {
			t.Errorf("StartOf(%v) = %v, want %v", tc.period, got, tc.want)
		}
	}
}

func TestMerge(t *testing.T) {
	a := []Date{New(2025, 1, 1), New(2025, 1, 3)}
	b := []Date{New(2025, 1, 2), New(2025, 1, 3), New(2025, 1, 5)}
	var got []Date
	for d := range Merge(a, b) {
		got = append(got, d)
	}
	want := []Date{New(2025, 1, 1), New(2025, 1, 2), New(2025, 1, 3), New(2025, 1, 5)}
	if len(got) != len(want) {
		t.Fatalf("Merge() returned %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Merge()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
