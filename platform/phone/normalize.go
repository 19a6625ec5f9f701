// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const fallbackRegion = "IN"

// NormalizeE164 formats a phone number to E.164, interpreting bare local
// numbers against the given region. If parsing fails, it returns the
// trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	if region == "" {
		region = fallbackRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
