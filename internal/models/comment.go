package model

import "time"

type Comment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID          string    `gorm:"size:36;not null;index" json:"task_id"`
	AuthorID        string    `gorm:"size:36;not null" json:"author_id"`
	Text            string    `gorm:"not null" json:"text"`
	IsSystemMessage bool      `gorm:"not null;default:false" json:"is_system_message"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "task_comments"
}
