package availability

import (
	"testing"

	"clinicsched/internal/domain"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "9:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "14:05:00", want: 845},
		{in: " 08:15 ", want: 495},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeToMinutes_DegradesToZero(t *testing.T) {
	if got := TimeToMinutes("garbage"); got != 0 {
		t.Fatalf("TimeToMinutes(garbage) = %d, want 0", got)
	}
	if got := TimeToMinutes("10:45"); got != 645 {
		t.Fatalf("TimeToMinutes(10:45) = %d, want 645", got)
	}
}

func TestMinutesToTime(t *testing.T) {
	tests := map[int]string{
		0:    "00:00",
		5:    "00:05",
		570:  "09:30",
		1439: "23:59",
		1500: "25:00",
	}
	for in, want := range tests {
		if got := MinutesToTime(in); got != want {
			t.Fatalf("MinutesToTime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 int
		want           bool
	}{
		{name: "disjoint", a1: 540, a2: 570, b1: 600, b2: 630, want: false},
		{name: "touching", a1: 540, a2: 600, b1: 600, b2: 660, want: false},
		{name: "partial", a1: 555, a2: 585, b1: 540, b2: 570, want: true},
		{name: "contained", a1: 540, a2: 720, b1: 600, b2: 615, want: true},
		{name: "identical", a1: 540, a2: 570, b1: 540, b2: 570, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntervalsOverlap(tt.a1, tt.a2, tt.b1, tt.b2)
			if got != tt.want {
				t.Fatalf("IntervalsOverlap = %v, want %v", got, tt.want)
			}
			if sym := IntervalsOverlap(tt.b1, tt.b2, tt.a1, tt.a2); sym != got {
				t.Fatalf("overlap not symmetric: %v vs %v", got, sym)
			}
		})
	}
}

func TestIsTimeWithinPeriod(t *testing.T) {
	p := domain.WorkingPeriod{Name: "Morning", StartTime: "09:00", EndTime: "12:00"}

	if !IsTimeWithinPeriod("09:00", p) {
		t.Fatalf("period start should be inside")
	}
	if !IsTimeWithinPeriod("11:59", p) {
		t.Fatalf("11:59 should be inside")
	}
	if IsTimeWithinPeriod("12:00", p) {
		t.Fatalf("period end should be outside")
	}
	if IsTimeWithinPeriod("08:59", p) {
		t.Fatalf("08:59 should be outside")
	}
}

func TestFormatTimeDisplay(t *testing.T) {
	tests := map[string]string{
		"00:00": "12:00 AM",
		"09:30": "9:30 AM",
		"12:00": "12:00 PM",
		"14:05": "2:05 PM",
		"23:45": "11:45 PM",
	}
	for in, want := range tests {
		if got := FormatTimeDisplay(in); got != want {
			t.Fatalf("FormatTimeDisplay(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCalculateEndTime(t *testing.T) {
	if got := CalculateEndTime("09:45", 30); got != "10:15" {
		t.Fatalf("CalculateEndTime = %q, want %q", got, "10:15")
	}
	if got := CalculateEndTime("11:00", 60); got != "12:00" {
		t.Fatalf("CalculateEndTime = %q, want %q", got, "12:00")
	}
}
