package enums

import "fmt"

// JobType categorizes the commercial nature of a job.
type JobType string

const (
	JobTypeSales   JobType = "sales"
	JobTypeProject JobType = "project"
	JobTypeService JobType = "service"
)

var validJobTypes = []JobType{
	JobTypeSales,
	JobTypeProject,
	JobTypeService,
}

// String implements fmt.Stringer.
func (t JobType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known JobType.
func (t JobType) IsValid() bool {
	for _, candidate := range validJobTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseJobType converts raw input into a JobType.
func ParseJobType(value string) (JobType, error) {
	for _, candidate := range validJobTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job type %q", value)
}
