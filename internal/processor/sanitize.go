package processor

import "regexp"

// Upstream error bodies can echo request headers or URLs that carry
// credentials. Nothing credential-shaped may reach the database or the logs.
var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|token|secret|password|passwd)\s*[=:]\s*\S+`),
	regexp.MustCompile(`(?i)authorization:\s*[\w-]+(\s+\S+)?`),
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`(?i)key=[^&\s]+`),
}

const redacted = "[REDACTED]"

// SanitizeError strips credential-like substrings from an error message
// before it is persisted or logged.
func SanitizeError(msg string) string {
	for _, pattern := range redactPatterns {
		msg = pattern.ReplaceAllString(msg, redacted)
	}
	return msg
}
