// Package telemetry scrubs user content before it reaches logs and traces.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
)

// PIILevel defines how much user content survives sanitization.
type PIILevel string

const (
	// PIILevelNone redacts user content entirely.
	PIILevelNone PIILevel = "none"
	// PIILevelHashed replaces detected PII with salted fingerprints.
	PIILevelHashed PIILevel = "hashed"
	// PIILevelFull keeps content verbatim; secrets are still redacted.
	PIILevelFull PIILevel = "full"
)

type rule struct {
	pattern *regexp.Regexp
	label   string
	hashed  bool
}

// Sanitizer scrubs prompts, captions and URLs according to a PIILevel.
type Sanitizer struct {
	level   PIILevel
	salt    string
	rules   []rule
	secrets []*regexp.Regexp
}

// NewSanitizer creates a sanitizer whose fingerprints are salted with salt.
func NewSanitizer(level PIILevel, salt string) *Sanitizer {
	return &Sanitizer{
		level: level,
		salt:  salt,
		rules: []rule{
			{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "EMAIL", true},
			{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "SSN", false},
			{regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), "CC", false},
			{regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), "PHONE", true},
			{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "IP", true},
			{regexp.MustCompile(`\b(?:[A-Fa-f0-9]{1,4}:){7}[A-Fa-f0-9]{1,4}\b`), "IP", true},
		},
		secrets: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`),
			regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{8,}`),
			regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret)=[^&\s]+`),
		},
	}
}

// Level returns the configured level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// SanitizePrompt scrubs a prompt, refined prompt or caption.
func (s *Sanitizer) SanitizePrompt(input string) string {
	if input == "" {
		return ""
	}
	switch s.level {
	case PIILevelNone:
		return "[REDACTED]"
	case PIILevelFull:
		return s.RedactSecrets(input)
	default:
		return s.RedactSecrets(s.maskPII(input))
	}
}

// RedactSecrets removes bearer tokens and API keys regardless of level.
func (s *Sanitizer) RedactSecrets(input string) string {
	for _, p := range s.secrets {
		input = p.ReplaceAllString(input, "[SECRET]")
	}
	return input
}

// SanitizeURL drops credentials and the query string, which may carry
// signatures, from an asset URL.
func (s *Sanitizer) SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "data" {
		if len(raw) > 32 {
			return raw[:32] + "..."
		}
		return raw
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// SanitizeMetadata applies SanitizePrompt to every value.
func (s *Sanitizer) SanitizeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		result[k] = s.SanitizePrompt(v)
	}
	return result
}

// Fingerprint is a short salted hash that lets logs correlate equal values
// without storing them.
func (s *Sanitizer) Fingerprint(data string) string {
	sum := sha256.Sum256([]byte(data + s.salt))
	return hex.EncodeToString(sum[:])[:8]
}

func (s *Sanitizer) maskPII(input string) string {
	for _, r := range s.rules {
		input = r.pattern.ReplaceAllStringFunc(input, func(match string) string {
			if !r.hashed {
				return "[" + r.label + ":REDACTED]"
			}
			return "[" + r.label + ":" + s.Fingerprint(match) + "]"
		})
	}
	return input
}
