package constants

type TaskStatus string

const (
	StatusOpen       TaskStatus = "open"
	StatusInProgress TaskStatus = "in_progress"
	StatusPending    TaskStatus = "pending"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

var taskStatuses = map[TaskStatus]struct{}{
	StatusOpen:       {},
	StatusInProgress: {},
	StatusPending:    {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s TaskStatus) Valid() bool {
	_, ok := taskStatuses[s]
	return ok
}

// Closed statuses never receive reminders.
func (s TaskStatus) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}
