package alert

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // ["deny", "injection_detected", "subject_blocked"]
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints.
type Event struct {
	Timestamp  string `json:"timestamp"`
	RequestID  string `json:"request_id"`
	SubjectID  string `json:"subject_id"`
	Decision   string `json:"decision"`
	Category   string `json:"category,omitempty"`
	Reason     string `json:"reason"`
	RiskLevel  string `json:"risk_level"`
	ConfigHash string `json:"config_hash,omitempty"`
	Kind       string `json:"kind,omitempty"` // "subject_blocked" etc.
}
