package utils

import (
	"regexp"
	"strings"
)

var (
	controlChars = regexp.MustCompile(`[\p{Cc}\p{Cf}\p{Co}\p{Cs}]`)
	multiSpace   = regexp.MustCompile(`\s+`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

// Truncate truncates a string to the specified length and adds ellipsis if needed
func Truncate(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return "..."
	}
	return string(runes[:maxLength-3]) + "..."
}

// SanitizeString strips control characters and collapses whitespace. Provider
// result descriptions pass through here before they are stored or logged.
func SanitizeString(s string) string {
	result := controlChars.ReplaceAllString(s, " ")
	result = multiSpace.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// MaskPhoneNumber masks a phone number, keeping only the last 4 digits visible
func MaskPhoneNumber(phone string) string {
	cleanPhone := nonDigits.ReplaceAllString(phone, "")
	if len(cleanPhone) <= 4 {
		return cleanPhone
	}

	return strings.Repeat("*", len(cleanPhone)-4) + cleanPhone[len(cleanPhone)-4:]
}
