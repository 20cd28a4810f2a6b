package logger

import (
	"fmt"
	"strings"
	"unicode"
)

// Length caps for logged values
const (
	MaxPathLength          = 500
	MaxUserIDLength        = 128
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	MaxTaskNameLength      = 120
	MaxRequestIDLength     = 64
)

// SanitizeString strips control characters and invalid UTF-8 and truncates
// to maxLength bytes. A non-positive maxLength uses MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, strings.ToValidUTF8(s, ""))
	if len(s) > maxLength {
		s = strings.ToValidUTF8(s[:maxLength], "") + "..."
	}
	return s
}

// SanitizePath is for request paths. Task ids and dates appear in paths, so
// the value is kept but cleaned.
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError logs server messages, which are untrusted
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeName is for user-entered task and list names
func SanitizeName(name string) string {
	return SanitizeString(name, MaxTaskNameLength)
}

func SanitizeRequestID(id string) string {
	return SanitizeString(id, MaxRequestIDLength)
}

// RedactToken keeps only enough of a bearer token to tell tokens apart
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return fmt.Sprintf("[%d chars]", len(token))
	}
	return fmt.Sprintf("%s...[%d chars]", SanitizeString(token[:4], 4), len(token))
}
