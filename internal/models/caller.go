package model

import "workforce-tracker.com/workforce-tracker/internal/constants"

// Caller is the authenticated principal behind a workflow operation.
type Caller struct {
	ID   string
	Role constants.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == constants.RoleAdmin
}
