// Package timefmt converts elapsed playback time between seconds, the
// "M:SS" label shown next to the slider, and the slider's value encoding.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned for negative, non-finite or out of range inputs
var ErrInvalidTime = errors.New("invalid time value")

// MaxSeconds is the longest time accepted, the largest whole number of
// seconds a time.Duration can hold.
const MaxSeconds = float64(math.MaxInt64 / int64(time.Second))

// SliderScale converts a slider value into elapsed seconds
const SliderScale = 100

// Display formats seconds as "M:SS". Minutes have no leading zero and no
// upper bound, fractional seconds are truncated.
func Display(seconds float64) (string, error) {
	if err := validate(seconds); err != nil {
		return "", err
	}

	total := int64(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60), nil
}

// Fraction returns the slider encoding of seconds: the display string read as
// a decimal with minutes as the integer part and seconds as the fractional
// part, so 65s ("1:05") becomes 1.05. The slider maximum uses the same
// encoding, which is why this is not elapsed/total.
func Fraction(seconds float64) (float64, error) {
	label, err := Display(seconds)
	if err != nil {
		return 0, err
	}

	minutes, secs, ok := strings.Cut(label, ":")
	if !ok {
		return 0, nil
	}

	value, err := strconv.ParseFloat(minutes+"."+secs, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse slider value %q: %w", label, err)
	}
	return value, nil
}

// SliderToSeconds converts a slider value back into elapsed seconds
func SliderToSeconds(value float64) float64 {
	return value * SliderScale
}

// Duration formats a time.Duration as "M:SS"
func Duration(d time.Duration) (string, error) {
	return Display(d.Seconds())
}

// Parse reads either "M:SS" or a plain number of seconds
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if minutes, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(minutes)
		if err != nil {
			return 0, fmt.Errorf("%w: minutes %q", ErrInvalidTime, minutes)
		}
		sec, err := strconv.Atoi(secs)
		if err != nil || len(secs) != 2 || sec > 59 {
			return 0, fmt.Errorf("%w: seconds %q", ErrInvalidTime, secs)
		}
		if m < 0 || sec < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		value := float64(m)*60 + float64(sec)
		if err := validate(value); err != nil {
			return 0, err
		}
		return value, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if err := validate(value); err != nil {
		return 0, err
	}
	return value, nil
}

func validate(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds > MaxSeconds {
		return fmt.Errorf("%w: %v", ErrInvalidTime, seconds)
	}
	return nil
}
