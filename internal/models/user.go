package model

import "workforce-tracker.com/workforce-tracker/internal/constants"

// User is owned by the user-management side of the tracker; this service only reads it.
type User struct {
	ID     string         `gorm:"primaryKey;size:36" json:"id"`
	Name   string         `gorm:"not null" json:"name"`
	Email  string         `gorm:"uniqueIndex" json:"email"`
	Role   constants.Role `gorm:"type:varchar(20);not null;default:employee" json:"role"`
	ChatID *string        `json:"chat_id,omitempty"`
}

// Reachable reports whether the user has a messaging channel identity.
func (u *User) Reachable() bool {
	return u != nil && u.ChatID != nil && *u.ChatID != ""
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
