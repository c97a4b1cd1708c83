package payment

import (
	"math/rand/v2"
	"time"
)

const (
	giftCodeLength   = 10
	giftCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateGiftCode returns a fixed-length code from the uppercase-and-digits
// alphabet. Uniqueness is enforced by the promo_codes.code index; callers
// regenerate on a duplicate-key conflict.
func GenerateGiftCode() string {
	code := make([]byte, giftCodeLength)
	for i := range code {
		code[i] = giftCodeAlphabet[rand.IntN(len(giftCodeAlphabet))]
	}
	return string(code)
}

// GiftBonusDays returns the day count of the calendar month reached by adding
// months to today, carrying year rollover. A 1-month gift bought in January
// 2024 grants 29 days; the same purchase in January 2023 grants 28.
func GiftBonusDays(today time.Time, months int) int {
	monthIndex := int(today.Month()) - 1 + months
	year := today.Year() + monthIndex/12
	month := time.Month(monthIndex%12 + 1)

	// Day zero of the following month is the last day of the target month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysRemaining counts whole calendar days from now until expiry, never
// negative.
func DaysRemaining(now, expiry time.Time) int {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expiryDate := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)

	days := int(expiryDate.Sub(nowDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
