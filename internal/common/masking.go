package common

import (
	"net/url"
	"regexp"
	"strings"
)

// MaskedValue replaces sensitive values in log output
const MaskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "password", "token")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Attribute keys masked outright (case-insensitive)
}

// DefaultSensitivePatterns covers credentials that appear in connection
// strings and OAuth configuration.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[:=]\s*)[^&;\s,}]+`),
		Replacement: "${1}${2}" + MaskedValue,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)\b(token|access_token|oauth_token)(\s*[:=]\s*)[^&;\s,}]+`),
		Replacement: "${1}${2}" + MaskedValue,
		Keys:        []string{"token", "access_token", "oauth_token"},
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)\b(secret|client_secret|privateKey|private_key)(\s*[:=]\s*)[^&;\s,}]+`),
		Replacement: "${1}${2}" + MaskedValue,
		Keys:        []string{"secret", "client_secret", "private_key", "privatekey"},
	},
	{
		Name:        "dsn_userinfo",
		Regex:       regexp.MustCompile(`([A-Za-z0-9_.+\-]+):[^@/\s:]+@`),
		Replacement: "${1}:" + MaskedValue + "@",
		Keys:        []string{"dsn"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + MaskedValue,
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return &Masker{patterns: DefaultSensitivePatterns, enabled: true}
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	return &Masker{patterns: patterns, enabled: true}
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.enabled {
		return input
	}
	result := input
	for _, pattern := range m.patterns {
		if pattern.Regex != nil {
			result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
		}
	}
	return result
}

// MaskValue masks value when key is sensitive; keys that only carry
// credentials (like "dsn") are pattern-masked instead of dropped.
func (m *Masker) MaskValue(key string, value any) any {
	if !m.enabled {
		return value
	}
	strValue, ok := value.(string)
	if !ok {
		if err, isErr := value.(error); isErr && err != nil {
			strValue = err.Error()
		} else {
			return value
		}
	}
	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		if pattern.Name == "dsn_userinfo" {
			continue
		}
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == sensitiveKey {
				return MaskedValue
			}
		}
	}
	return m.MaskString(strValue)
}

// MaskDSN hides the password of a URL-style or key=value connection string.
func MaskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			return strings.Replace(u.String(), "xxxxx", MaskedValue, 1)
		}
	}
	return globalMasker.MaskString(dsn)
}

// Global masker instance
var globalMasker = NewMasker()

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker {
	return globalMasker
}

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}

// IsMaskingEnabled returns whether global masking is enabled
func IsMaskingEnabled() bool {
	return globalMasker.IsEnabled()
}
