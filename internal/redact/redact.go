package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens). Tokens show up in HTTP error
	// messages returned by the completion endpoints.
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|(openrouter|gemini)[_-]?api[_-]?key)\b\s*[:=]\s*[^\s"']+`)

	// OpenRouter / OpenAI style secret keys ("sk-or-v1-...", "sk-...").
	skKeyRe = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`)

	// Gemini API keys are passed as ?key=... on some transports.
	queryKeyRe = regexp.MustCompile(`([?&]key=)[^&\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
//
// Safe to call on any message, including customer names and upstream error strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = skKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = queryKeyRe.ReplaceAllString(out, "${1}<redacted>")
	return strings.TrimSpace(out)
}
