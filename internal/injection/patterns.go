package injection

import "regexp"

// signature binds one regex to the attack type it indicates, the
// confidence it carries, and a short human explanation.
type signature struct {
	re          *regexp.Regexp
	kind        Type
	confidence  float64
	explanation string
}

// signatures is scanned in order; the first entry whose pattern matches
// and whose confidence clears the detector sensitivity decides the
// verdict. Higher-confidence variants of a technique come first within
// each group.
var signatures = []signature{
	// Direct overrides.
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
		DirectOverride, 0.95, "ignore previous instructions"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|guidelines?)`),
		DirectOverride, 0.95, "disregard instructions"},
	{regexp.MustCompile(`(?i)forget\s+(everything|all|your)\s+(instructions?|training|rules?)`),
		DirectOverride, 0.90, "forget instructions"},
	{regexp.MustCompile(`(?i)new\s+(system\s+)?instructions?:\s*`),
		DirectOverride, 0.85, "new instructions marker"},
	{regexp.MustCompile(`(?i)override\s+(all\s+)?(safety|security|content)\s+(filters?|checks?)`),
		DirectOverride, 0.95, "override safety filters"},

	// Role hijacking.
	{regexp.MustCompile(`(?i)you\s+are\s+(now|no\s+longer)\s+(a|an)?\s*\w+\s*(mode|persona|character)?`),
		RoleHijack, 0.85, "role change attempt"},
	{regexp.MustCompile(`(?i)pretend\s+(you\s+are|to\s+be)\s+(a|an)?\s*\w+`),
		RoleHijack, 0.75, "pretend to be"},
	{regexp.MustCompile(`(?i)act\s+as\s+(if\s+you\s+are\s+)?(a|an)?\s*\w+\s*(without|with\s+no)\s*(restrictions?|limits?)`),
		RoleHijack, 0.90, "act without restrictions"},
	{regexp.MustCompile(`(?i)roleplay\s+as\s+(a|an)?\s*\w+\s*(that|who)\s*(can|will|does)`),
		RoleHijack, 0.80, "roleplay with capabilities"},

	// Jailbreaks.
	{regexp.MustCompile(`(?i)(DAN|do\s+anything\s+now)\s*(mode|prompt)?`),
		Jailbreak, 0.95, "DAN jailbreak"},
	{regexp.MustCompile(`(?i)(developer|debug|admin|god)\s+mode`),
		Jailbreak, 0.90, "special mode request"},
	{regexp.MustCompile(`(?i)bypass\s+(all\s+)?(safety|security|ethical|content)\s*(guidelines?|filters?|restrictions?)?`),
		Jailbreak, 0.95, "bypass safety"},
	{regexp.MustCompile(`(?i)(hypothetically|theoretically|in\s+fiction)\s*[,:]?\s*(how|what)\s+(would|could|can)`),
		Jailbreak, 0.60, "hypothetical framing"},
	{regexp.MustCompile(`(?i)for\s+(educational|research|academic)\s+purposes?\s*[,:]?\s*(how|explain)`),
		Jailbreak, 0.55, "educational framing"},

	// Context manipulation.
	{regexp.MustCompile(`(?i)\[system\]|\[assistant\]|\[user\]|\[human\]`),
		ContextManipulation, 0.90, "fake role markers"},
	{regexp.MustCompile(`(?i)<\|?(system|assistant|user|human)\|?>`),
		ContextManipulation, 0.90, "fake role delimiters"},
	{regexp.MustCompile("(?i)```(system|prompt|instructions?)\n"),
		ContextManipulation, 0.80, "code block injection"},
	{regexp.MustCompile(`(?i)end\s+of\s+(system|user)\s+(prompt|message|input)`),
		ContextManipulation, 0.85, "fake message boundary"},

	// Data exfiltration.
	{regexp.MustCompile(`(?i)(repeat|show|reveal|print)\s+(your\s+)?(system\s+)?(prompt|instructions?|guidelines?)`),
		DataExfiltration, 0.85, "reveal system prompt"},
	{regexp.MustCompile(`(?i)what\s+(are|were)\s+(your|the)\s+(original\s+)?(instructions?|prompt|guidelines?)`),
		DataExfiltration, 0.80, "query instructions"},
	{regexp.MustCompile(`(?i)(output|display|echo)\s+(the\s+)?(entire|full|complete)\s+(context|prompt|instructions?)`),
		DataExfiltration, 0.90, "output full context"},
}

var instructionWordRe = regexp.MustCompile(`(?i)\b(must|always|never|should|shall|will)\b`)
