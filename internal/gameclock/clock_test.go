package gameclock

import (
	"errors"
	"testing"

	"github.com/fortuna/janus/internal/pbp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		period  int
		seconds int
		session pbp.Session
		want    int
		wantErr bool
	}{
		{"first period", 1, 59, pbp.Regular, 59, false},
		{"third period", 3, 600, pbp.Regular, 3000, false},
		{"regular overtime", 4, 120, pbp.Regular, 3720, false},
		{"regular shootout", 5, 0, pbp.Regular, 3900, false},
		{"playoff second overtime", 5, 30, pbp.Playoff, 3830, false},
		{"playoff third overtime", 6, 10, pbp.Playoff, 6010, false},
		{"period zero", 0, 10, pbp.Regular, Unresolved, true},
		{"negative seconds", 2, -1, pbp.Regular, Unresolved, true},
		{"unknown session", 1, 10, pbp.Session("X"), Unresolved, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.period, tt.seconds, tt.session)
			if tt.wantErr {
				if !errors.Is(err, ErrUnresolved) {
					t.Errorf("Resolve() error = %v, want ErrUnresolved", err)
				}
			} else if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0:59", 59, false},
		{"12:05", 725, false},
		{"0:0020:00", 0, false},
		{"-1:00", 60, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	tests := map[string]int{"1": 1, "3": 3, "OT": 4, "SO": 5, "": 1}
	for in, want := range tests {
		got, err := ParsePeriod(in)
		if err != nil {
			t.Fatalf("ParsePeriod(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParsePeriod(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPeriodLength(t *testing.T) {
	if got := PeriodLength(2, pbp.Regular); got != 1200 {
		t.Errorf("regulation period = %d, want 1200", got)
	}
	if got := PeriodLength(4, pbp.Regular); got != 300 {
		t.Errorf("regular overtime = %d, want 300", got)
	}
	if got := PeriodLength(4, pbp.Playoff); got != 1200 {
		t.Errorf("playoff overtime = %d, want 1200", got)
	}
}
