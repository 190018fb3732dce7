package model

import "time"

type Attachment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	TaskID     string    `gorm:"size:36;not null;index" json:"task_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `gorm:"size:100" json:"file_type"`
	FileURL    string    `json:"file_url,omitempty"`
	DriveLink  string    `json:"drive_link,omitempty"`
	UploadedBy string    `gorm:"size:36;not null" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Attachment) TableName() string {
	return "task_attachments"
}
