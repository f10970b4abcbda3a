package injection

import (
	"fmt"
	"regexp"
	"strings"
)

// RejectedError reports why Protect refused an input. Callers branch on
// the presence of a Verdict to tell injection rejections from length
// rejections.
type RejectedError struct {
	Reason  string
	Verdict *Verdict
}

func (e *RejectedError) Error() string { return e.Reason }

var (
	roleMarkerRe    = regexp.MustCompile(`(?i)\[/?(system|assistant|user)\]`)
	roleDelimiterRe = regexp.MustCompile(`(?i)<\|?(system|assistant|user|human)\|?>`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Guard is the high-level entry point for input protection: a length
// cap, injection detection, and sanitization in one call.
type Guard struct {
	detector       *Detector
	maxInputLength int
	stripTokens    bool
}

// GuardConfig controls Guard behaviour.
type GuardConfig struct {
	MaxInputLength     int  `yaml:"max_input_length"`
	StripSpecialTokens bool `yaml:"strip_special_tokens"`
}

// DefaultGuardConfig returns the standard guard settings.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{MaxInputLength: 10000, StripSpecialTokens: true}
}

// NewGuard builds a guard around detector. A nil detector gets the
// default; a zero length cap gets the default cap.
func NewGuard(detector *Detector, cfg GuardConfig) *Guard {
	if detector == nil {
		detector = NewDetector(DefaultConfig())
	}
	maxLen := cfg.MaxInputLength
	if maxLen <= 0 {
		maxLen = DefaultGuardConfig().MaxInputLength
	}
	return &Guard{
		detector:       detector,
		maxInputLength: maxLen,
		stripTokens:    cfg.StripSpecialTokens,
	}
}

// Protect validates and sanitizes one input. On rejection it returns
// an empty string and a *RejectedError.
func (g *Guard) Protect(input string) (string, error) {
	if len(input) > g.maxInputLength {
		return "", &RejectedError{
			Reason: fmt.Sprintf("input too long (%d > %d)", len(input), g.maxInputLength),
		}
	}

	v := g.detector.Detect(input)
	if v.IsInjection {
		return "", &RejectedError{
			Reason:  fmt.Sprintf("potential %s: %s", v.Type, v.Explanation),
			Verdict: &v,
		}
	}

	return g.Sanitize(input), nil
}

// Sanitize strips role markers and normalizes whitespace while leaving
// legitimate content alone.
func (g *Guard) Sanitize(content string) string {
	result := content
	if g.stripTokens {
		result = roleMarkerRe.ReplaceAllString(result, "")
		result = roleDelimiterRe.ReplaceAllString(result, "")
	}
	result = blankRunRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
