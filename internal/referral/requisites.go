package referral

import (
	"regexp"
)

const MaxRequisitesLength = 100

var (
	suspiciousSQLKeywords = regexp.MustCompile(`(?i)\b(DROP\s*TABLE|DELETE\s*FROM|ALTER\s*TABLE|TRUNCATE\s*TABLE|UNION\s*SELECT|;\s*SELECT|;\s*INSERT|;\s*UPDATE|;\s*DELETE|xp_cmdshell|sysdatabases|sysobjects|INFORMATION_SCHEMA)\b`)
	suspiciousChars       = regexp.MustCompile(`(--|#\s|;|\*/|/\*)`)
)

// ValidRequisites screens the free-text payout requisites before they reach
// the ledger. Empty, oversized or injection-looking input is rejected.
func ValidRequisites(input string) bool {
	if input == "" || len(input) > MaxRequisitesLength {
		return false
	}
	if suspiciousSQLKeywords.MatchString(input) || suspiciousChars.MatchString(input) {
		return false
	}
	return true
}
