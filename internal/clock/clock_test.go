package clock

import (
	"testing"
	"time"
)

func TestDayKey(t *testing.T) {
	bkk := time.FixedZone("ICT", 7*3600)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "plain", in: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC), want: "20240309"},
		{name: "localLateNight", in: time.Date(2024, 3, 9, 23, 59, 0, 0, bkk), want: "20240309"},
		{name: "utcConvertedToLocal", in: time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC).In(bkk), want: "20240310"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayKey(tt.in); got != tt.want {
				t.Errorf("DayKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDayKey(t *testing.T) {
	got, err := ParseDayKey("20240310", time.UTC)
	if err != nil {
		t.Fatalf("ParseDayKey() error = %v", err)
	}
	if DayKey(got) != "20240310" {
		t.Errorf("ParseDayKey() round trip = %q", DayKey(got))
	}

	if _, err := ParseDayKey("2024-03-10", time.UTC); err == nil {
		t.Error("ParseDayKey() expected error for dashed key")
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	c := NewFixed(start)

	c.Advance(90 * time.Minute)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(90*time.Minute))
	}

	c.Set(start)
	if got := c.Now(); !got.Equal(start) {
		t.Errorf("Now() after Set = %v, want %v", got, start)
	}
}
