package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeStreak(t *testing.T) {
	today := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, ComputeStreak(nil, today))
	assert.Equal(t, 1, ComputeStreak([]string{"2026-01-02"}, today))
	assert.Equal(t, 0, ComputeStreak([]string{"2026-01-01"}, today))

	// crosses a year boundary
	run := []string{"2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}
	assert.Equal(t, 4, ComputeStreak(run, today))

	// full timestamps are truncated to their day
	stamps := []string{"2026-01-02T07:59:00Z", "2026-01-01T23:59:59Z", "2026-01-01T00:00:00Z"}
	assert.Equal(t, 2, ComputeStreak(stamps, today))
}

func TestComputeStreakUsesUTCDay(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	local := time.Date(2026, 1, 1, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, 1, ComputeStreak([]string{"2026-01-02"}, local))
	assert.Equal(t, 0, ComputeStreak([]string{"2026-01-01"}, local))
}
