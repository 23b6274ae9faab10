package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidDuration = errors.New("invalid duration")

// MaxDurationSeconds is the longest exercise accepted: one day.
const MaxDurationSeconds = 24 * 60 * 60

var (
	clockPattern  = regexp.MustCompile(`^(\d+):([0-5]\d)$`)
	termPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-z]*)`)
	fillerPattern = regexp.MustCompile(`^[\s,]*(and)?[\s,]*$`)
)

var unitSeconds = map[string]float64{
	"":        1,
	"s":       1,
	"sec":     1,
	"secs":    1,
	"second":  1,
	"seconds": 1,
	"m":       60,
	"min":     60,
	"mins":    60,
	"minute":  60,
	"minutes": 60,
	"h":       3600,
	"hr":      3600,
	"hrs":     3600,
	"hour":    3600,
	"hours":   3600,
}

// ParseDuration converts a duration label into whole seconds.
//
// Accepted forms: "90", "1:30", "2 minutes", "30 sec", "1.5 min",
// "1 minute 30 seconds". An empty label is zero.
func ParseDuration(label string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return 0, nil
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		mins, err := strconv.Atoi(m[1])
		if err != nil || mins > MaxDurationSeconds/60 {
			return 0, fmt.Errorf("%w: %q exceeds one day", ErrInvalidDuration, label)
		}
		secs, _ := strconv.Atoi(m[2])
		return checkMax(mins*60+secs, label)
	}

	matches := termPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, label)
	}

	var total float64
	prev := 0
	for _, m := range matches {
		if !fillerPattern.MatchString(s[prev:m[0]]) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, label)
		}
		num, err := strconv.ParseFloat(s[m[2]:m[3]], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, label)
		}
		mult, ok := unitSeconds[s[m[4]:m[5]]]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidDuration, label)
		}
		total += num * mult
		prev = m[1]
	}
	if !fillerPattern.MatchString(s[prev:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, label)
	}

	if total > MaxDurationSeconds {
		return 0, fmt.Errorf("%w: %q exceeds one day", ErrInvalidDuration, label)
	}
	return int(math.Round(total)), nil
}

func checkMax(seconds int, label string) (int, error) {
	if seconds > MaxDurationSeconds {
		return 0, fmt.Errorf("%w: %q exceeds one day", ErrInvalidDuration, label)
	}
	return seconds, nil
}
