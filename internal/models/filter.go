package model

import "workforce-tracker.com/workforce-tracker/internal/constants"

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	Status   constants.TaskStatus
	Priority constants.TaskPriority
	Assignee string
	Customer string
	DueFrom  string
	DueTo    string
	Search   string
}

// ReminderCursor marks the last due reminder a sweep has looked at.
type ReminderCursor struct {
	Date string
	Time string
	ID   string
}

// ReminderCursor returns the position of t in reminder order.
func (t *Task) ReminderCursor() *ReminderCursor {
	c := &ReminderCursor{ID: t.ID}
	if t.ReminderDate != nil {
		c.Date = *t.ReminderDate
	}
	if t.ReminderTime != nil {
		c.Time = *t.ReminderTime
	}
	return c
}

type Customer struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	CompanyName   string `json:"company_name"`
}

type Dashboard struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByPriority     map[string]int64 `json:"by_priority"`
	Overdue        int64            `json:"overdue"`
	DueToday       int64            `json:"due_today"`
	CompletedToday int64            `json:"completed_today"`
}
