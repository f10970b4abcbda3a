package monitor

// RiskLevel classifies a subject by accumulated risk. Ordering is
// significant: higher values are worse, and Blocked outranks every
// score-derived level.
type RiskLevel int

const (
	Low RiskLevel = iota
	Medium
	High
	Critical
	Blocked
)

// String returns the wire name of the level.
func (l RiskLevel) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Behavioral flags attached to subject profiles. Negative flags are
// added by the recording methods; positive flags come from operators
// via AddPositiveFlag.
const (
	FlagRepeatedBlockedContent = "repeated_blocked_content"
	FlagInjectionAttempts      = "prompt_injection_attempts"
	FlagCircumvention          = "filter_circumvention"
	FlagRapidFire              = "rapid_fire_requests"

	FlagVerified     = "verified_user"
	FlagLongStanding = "long_standing_account"
	FlagGoodStanding = "good_standing"
)

// Score weights per event kind.
const (
	weightBlockedContent = 5
	weightInjection      = 15
	weightCircumvention  = 20
	weightRapidFire      = 5
)

// Score thresholds for the derived levels.
const (
	mediumThreshold   = 25
	highThreshold     = 50
	criticalThreshold = 75
)
