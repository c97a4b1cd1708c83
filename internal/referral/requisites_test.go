package referral

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRequisites(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"card number", "2200 1234 5678 9010", true},
		{"wallet with bank name", "+79001234567 Сбербанк", true},
		{"empty", "", false},
		{"too long", strings.Repeat("1", MaxRequisitesLength+1), false},
		{"sql keyword", "2200; DROP TABLE payouts", false},
		{"union select", "UNION SELECT * FROM users", false},
		{"comment chars", "2200 -- comment", false},
		{"semicolon", "2200;1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRequisites(tt.input))
		})
	}
}
