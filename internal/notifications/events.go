package notifications

import model "workforce-tracker.com/workforce-tracker/internal/models"

type EventType string

const (
	EventTaskAssigned  EventType = "task_assigned"
	EventTaskCompleted EventType = "task_completed"
)

// Event is a snapshot of a workflow change waiting to be turned into a message.
type Event struct {
	Type    EventType
	Task    model.Task
	ActorID string
}

func (e Event) key() string {
	key := string(e.Type) + ":" + e.Task.ID
	if e.Type == EventTaskAssigned && e.Task.AssignedTo != nil {
		key += ":" + *e.Task.AssignedTo
	}
	return key
}
