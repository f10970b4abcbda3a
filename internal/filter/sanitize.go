package filter

// Redaction placeholders, one per PII subtype.
const (
	SSNPlaceholder   = "[SSN REDACTED]"
	CardPlaceholder  = "[CC REDACTED]"
	EmailPlaceholder = "[EMAIL REDACTED]"
)

// SanitizePII replaces PII spans with fixed placeholder tokens.
// Surrounding text is left untouched. The transform is independent
// of any block decision: callers may sanitize content that passed.
func SanitizePII(content string) string {
	result := emailRe.ReplaceAllString(content, EmailPlaceholder)
	result = ssnRe.ReplaceAllString(result, SSNPlaceholder)
	result = cardRe.ReplaceAllString(result, CardPlaceholder)
	return result
}
