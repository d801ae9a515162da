package processor_test

import (
	"strings"
	"testing"

	"github.com/jonesrussell/graphweave/internal/processor"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		leaked string
	}{
		{
			name:   "bearer token",
			input:  "request failed: Bearer eyJhbGciOiJIUzI1NiJ9.payload rejected",
			leaked: "eyJhbGciOiJIUzI1NiJ9",
		},
		{
			name:   "api key pair",
			input:  "bad request: api_key=abcdef123456",
			leaked: "abcdef123456",
		},
		{
			name:   "openai style key",
			input:  "401: invalid key sk-proj-1234567890abcdef",
			leaked: "sk-proj-1234567890abcdef",
		},
		{
			name:   "authorization header echoed",
			input:  "upstream echoed Authorization: Basic dXNlcjpwYXNz",
			leaked: "dXNlcjpwYXNz",
		},
		{
			name:   "query string key",
			input:  "GET /w/api.php?action=query&key=topsecret failed",
			leaked: "topsecret",
		},
		{
			name:   "password assignment",
			input:  "dsn parse: password=hunter2 host=db",
			leaked: "hunter2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processor.SanitizeError(tt.input)
			if strings.Contains(got, tt.leaked) {
				t.Errorf("SanitizeError(%q) = %q, still contains %q", tt.input, got, tt.leaked)
			}
			if !strings.Contains(got, "[REDACTED]") {
				t.Errorf("SanitizeError(%q) = %q, no redaction marker", tt.input, got)
			}
		})
	}
}

func TestSanitizeErrorPreservesPlainMessages(t *testing.T) {
	msg := "connection refused: dial tcp 10.0.0.5:5432"
	if got := processor.SanitizeError(msg); got != msg {
		t.Errorf("SanitizeError(%q) = %q, want unchanged", msg, got)
	}
}
