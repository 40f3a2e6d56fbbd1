package enums

import "fmt"

// JobStatus tracks where a job sits in its lifecycle.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusAssigned,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusCancelled,
}

// ActiveJobStatuses is the "active" bucket used by conversational filters.
var ActiveJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusAssigned,
	JobStatusInProgress,
}

// JobStatuses returns every known status in lifecycle order.
func JobStatuses() []JobStatus {
	statuses := make([]JobStatus, len(validJobStatuses))
	copy(statuses, validJobStatuses)
	return statuses
}

// String implements fmt.Stringer.
func (s JobStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known JobStatus.
func (s JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
