package domain

import "regexp"

// Error messages returned to callers must not leak credential-like
// substrings. These patterns cover the common key=value and header forms.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(token|password|passwd|secret|api[_-]?key|client[_-]?secret|access[_-]?key)\s*[=:]\s*\S+`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`),
	regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]+`),
}

const redacted = "[REDACTED]"

// SanitizeMessage strips credential-like substrings from a message before
// it crosses the process boundary.
func SanitizeMessage(msg string) string {
	for _, pattern := range credentialPatterns {
		msg = pattern.ReplaceAllString(msg, redacted)
	}
	return msg
}

// SanitizeError is SanitizeMessage for errors; a nil error yields "".
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeMessage(err.Error())
}
