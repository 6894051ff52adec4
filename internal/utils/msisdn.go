package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// PREFIXES defines the valid mobile prefixes for supported operators
var PREFIXES = struct {
	SAFARICOM []int
}{
	SAFARICOM: []int{70, 71, 72, 74, 79, 10, 11},
}

// ValidateMSISDN validates a phone number format and checks if it's a Safaricom number.
// On success it returns the canonical 254XXXXXXXXX form expected by the STK push API.
func ValidateMSISDN(msisdn string) (bool, string, error) {
	// Clean the input by removing any separator characters
	stripped := strings.ReplaceAll(msisdn, "-", "")
	stripped = strings.ReplaceAll(stripped, " ", "")
	stripped = strings.ReplaceAll(stripped, "+", "")

	// Remove country code if present (254 for Kenya)
	if strings.HasPrefix(stripped, "254") {
		stripped = stripped[3:]
	} else if strings.HasPrefix(stripped, "0") {
		stripped = stripped[1:]
	}

	// Validate against Safaricom prefixes
	prefixesStr := make([]string, len(PREFIXES.SAFARICOM))
	for i, prefix := range PREFIXES.SAFARICOM {
		prefixesStr[i] = fmt.Sprintf("%d", prefix)
	}

	// Subscriber numbers are 9 digits after the country code
	pattern := fmt.Sprintf("^(%s)\\d{7}$", strings.Join(prefixesStr, "|"))
	isValid := regexp.MustCompile(pattern).MatchString(stripped)

	if !isValid {
		return false, "", fmt.Errorf("invalid MSISDN format or not a Safaricom number")
	}

	// Format with country code
	formatted := "254" + stripped

	return true, formatted, nil
}

// MaskMSISDN hides all but the last four digits of a phone number for logs.
func MaskMSISDN(msisdn string) string {
	return MaskPhoneNumber(msisdn)
}
