package telecom

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "US"

// FormatCaller renders a caller number in E.164 form when it parses as a
// valid number for region. Anything else (withheld numbers, SIP handles,
// short codes) is returned unchanged.
func FormatCaller(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = DefaultRegion
	}
	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// ValidDialString reports whether s only contains characters a dialer
// accepts: digits, '+', '*', '#', and separators that are stripped later.
func ValidDialString(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '*' || r == '#' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits > 0
}

// NormalizeDialString strips separators from a dial string.
func NormalizeDialString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '-', '(', ')':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
