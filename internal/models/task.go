package model

import (
	"time"

	"workforce-tracker.com/workforce-tracker/internal/constants"
)

type Task struct {
	ID                  string                 `gorm:"primaryKey;size:36" json:"id"`
	Title               string                 `gorm:"not null" json:"title"`
	Description         string                 `json:"description"`
	Category            string                 `gorm:"size:100" json:"category"`
	Priority            constants.TaskPriority `gorm:"type:varchar(20);not null;default:medium" json:"priority"`
	Status              constants.TaskStatus   `gorm:"type:varchar(20);not null;default:open;index" json:"status"`
	AssignedTo          *string                `gorm:"size:36;index" json:"assigned_to"`
	CreatedBy           string                 `gorm:"size:36;not null" json:"created_by"`
	CompletedBy         *string                `gorm:"size:36" json:"completed_by"`
	CompletedAt         *time.Time             `json:"completed_at"`
	CustomerName        string                 `json:"customer_name"`
	CustomerEmail       string                 `json:"customer_email"`
	CustomerPhone       string                 `json:"customer_phone"`
	CompanyName         string                 `json:"company_name"`
	DueDate             *string                `gorm:"size:10;index" json:"due_date"`
	DueTime             *string                `gorm:"size:5" json:"due_time"`
	ReminderDate        *string                `gorm:"size:10" json:"reminder_date"`
	ReminderTime        *string                `gorm:"size:5" json:"reminder_time"`
	ReminderSent        bool                   `gorm:"not null;default:false" json:"reminder_sent"`
	ResolutionNotes     *string                `json:"resolution_notes"`
	SendCompletionEmail bool                   `gorm:"not null" json:"send_completion_email"`
	Version             uint                   `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`

	Comments    []Comment    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// TaskDetail is a task together with its comment thread and attachments.
type TaskDetail struct {
	Task        Task         `json:"task"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}
