package timefmt

import (
	"errors"
	"math"
	"regexp"
	"testing"
	"time"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "single digit seconds", seconds: 5, want: "0:05"},
		{name: "two digit seconds", seconds: 42, want: "0:42"},
		{name: "one minute five", seconds: 65, want: "1:05"},
		{name: "exact minutes", seconds: 120, want: "2:00"},
		{name: "fraction truncated", seconds: 59.9, want: "0:59"},
		{name: "over an hour keeps minutes", seconds: 7505, want: "125:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Display(tt.seconds)
			if err != nil {
				t.Fatalf("Display(%v) error: %v", tt.seconds, err)
			}
			if got != tt.want {
				t.Errorf("Display(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestDisplay_Pattern(t *testing.T) {
	pattern := regexp.MustCompile(`^(0|[1-9][0-9]*):[0-5][0-9]$`)
	for s := 0.0; s < 4000; s += 7.3 {
		got, err := Display(s)
		if err != nil {
			t.Fatalf("Display(%v) error: %v", s, err)
		}
		if !pattern.MatchString(got) {
			t.Errorf("Display(%v) = %q does not match M:SS", s, got)
		}
	}
}

func TestDisplay_RejectsInvalid(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1), 1e19, MaxSeconds * 2} {
		if _, err := Display(v); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("Display(%v) error = %v, want ErrInvalidTime", v, err)
		}
		if _, err := Fraction(v); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("Fraction(%v) error = %v, want ErrInvalidTime", v, err)
		}
	}
}

func TestDisplay_MaxSeconds(t *testing.T) {
	got, err := Display(MaxSeconds)
	if err != nil {
		t.Fatalf("Display(MaxSeconds) error: %v", err)
	}
	if got != "153722867:16" {
		t.Errorf("Display(MaxSeconds) = %q, want %q", got, "153722867:16")
	}
	if d := time.Duration(MaxSeconds * float64(time.Second)); d <= 0 {
		t.Errorf("MaxSeconds overflows time.Duration: %v", d)
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		seconds float64
		want    float64
	}{
		{0, 0},
		{5, 0.05},
		{65, 1.05},
		{125, 2.05},
		{120, 2.0},
		{599, 9.59},
	}

	for _, tt := range tests {
		got, err := Fraction(tt.seconds)
		if err != nil {
			t.Fatalf("Fraction(%v) error: %v", tt.seconds, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Fraction(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestSliderToSeconds(t *testing.T) {
	if got := SliderToSeconds(1.5); math.Abs(got-150) > 1e-9 {
		t.Errorf("SliderToSeconds(1.5) = %v, want 150", got)
	}
}

func TestDuration(t *testing.T) {
	got, err := Duration(3*time.Minute + 7*time.Second)
	if err != nil {
		t.Fatalf("Duration error: %v", err)
	}
	if got != "3:07" {
		t.Errorf("Duration = %q, want 3:07", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{input: "1:05", want: 65},
		{input: "0:00", want: 0},
		{input: "90", want: 90},
		{input: " 12.5 ", want: 12.5},
		{input: "1:5", wantErr: true},
		{input: "1:75", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1e19", wantErr: true},
		{input: "999999999999:00", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTime) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidTime", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
