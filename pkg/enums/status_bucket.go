package enums

// StatusBucket is the coarse status filter the conversational channel accepts.
type StatusBucket string

const (
	StatusBucketActive    StatusBucket = "active"
	StatusBucketCompleted StatusBucket = "completed"
)

// Statuses expands the bucket into the concrete job statuses it covers.
// An unknown bucket expands to nothing, which callers treat as "no filter".
func (b StatusBucket) Statuses() []JobStatus {
	switch b {
	case StatusBucketActive:
		return ActiveJobStatuses
	case StatusBucketCompleted:
		return []JobStatus{JobStatusCompleted}
	default:
		return nil
	}
}
