package payment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGiftBonusDays(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		today  time.Time
		months int
		want   int
	}{
		{"leap february", day(2024, time.January, 15), 1, 29},
		{"regular february", day(2023, time.January, 15), 1, 28},
		{"year rollover", day(2023, time.December, 10), 1, 31},
		{"rollover into february", day(2023, time.December, 10), 2, 29},
		{"more than a year ahead", day(2024, time.January, 15), 13, 28},
		{"shorter target month", day(2024, time.March, 31), 1, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GiftBonusDays(tt.today, tt.months))
		})
	}
}

func TestGenerateGiftCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateGiftCode()
		assert.Len(t, code, giftCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(giftCodeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// Collisions over 100 draws from a 36^10 space mean the generator is broken.
	assert.Greater(t, len(seen), 90)
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysRemaining(now, now))
	assert.Equal(t, 0, DaysRemaining(now, now.AddDate(0, 0, -3)), "expired subscription never reports negative days")
	assert.Equal(t, 30, DaysRemaining(now, now.AddDate(0, 0, 30)))

	// Calendar days, not 24h periods: late evening to early next morning is one day.
	evening := time.Date(2025, time.June, 10, 23, 0, 0, 0, time.UTC)
	morning := time.Date(2025, time.June, 11, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysRemaining(evening, morning))
}
