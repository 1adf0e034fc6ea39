// Package logging redacts credentials from strings before they reach the logs.
package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// Matches password=xxx, pwd=xxx, pass=xxx up to the next delimiter.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Matches user:pass@host in postgres:// and redis:// URLs.
	urlCredentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// Matches session cookies echoed in errors.
	cookiePattern = regexp.MustCompile(`(?i)(pantry-session|cookie)=[^;\s]+`)
)

// SanitizeConnectionString removes credentials from a connection string.
// Use this before logging any database or Redis address.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return urlCredentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError returns the error text with credentials and cookies removed.
// Use this before logging errors from database, Redis or session operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := SanitizeConnectionString(err.Error())
	return cookiePattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}
