package enums

import "strings"

// IntentKind is the closed vocabulary the intent resolver classifies into.
// Unknown upstream values degrade to IntentOtherChat rather than erroring.
type IntentKind string

const (
	IntentQueryJobs       IntentKind = "QUERY_JOBS"
	IntentGetJobDetails   IntentKind = "GET_JOB_DETAILS"
	IntentUpdateJob       IntentKind = "UPDATE_JOB"
	IntentQueryProjects   IntentKind = "QUERY_PROJECTS"
	IntentProfilePassword IntentKind = "PROFILE_PASSWORD"
	IntentOtherChat       IntentKind = "OTHER_CHAT"
)

var validIntentKinds = []IntentKind{
	IntentQueryJobs,
	IntentGetJobDetails,
	IntentUpdateJob,
	IntentQueryProjects,
	IntentProfilePassword,
	IntentOtherChat,
}

// String implements fmt.Stringer.
func (k IntentKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known IntentKind.
func (k IntentKind) IsValid() bool {
	for _, candidate := range validIntentKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseIntentKind maps raw input onto the vocabulary, defaulting to OTHER_CHAT.
// Matching is case-insensitive since the value comes from model output.
func ParseIntentKind(value string) IntentKind {
	normalized := IntentKind(strings.ToUpper(strings.TrimSpace(value)))
	for _, candidate := range validIntentKinds {
		if candidate == normalized {
			return candidate
		}
	}
	return IntentOtherChat
}
