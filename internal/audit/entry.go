package audit

// Entry is one line in the hash-chained JSONL audit log.
// All fields are flat scalars (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string  `json:"ts"`
	RequestID  string  `json:"request_id"`
	SubjectID  string  `json:"subject_id"`
	Decision   string  `json:"decision"`
	Category   string  `json:"category,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	RiskLevel  string  `json:"risk_level"`
	Confidence float64 `json:"confidence"`
	ConfigHash string  `json:"config_hash,omitempty"`
	PrevHash   string  `json:"prev_hash"`
}

// Decision values recorded in audit entries.
const (
	DecisionAllow = "allow"
	DecisionWarn  = "warn"
	DecisionDeny  = "deny"
)
