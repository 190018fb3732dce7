package dto

type AttachmentRequest struct {
	FileName  string `json:"file_name" validate:"max=255"`
	FileType  string `json:"file_type" validate:"max=100"`
	FileURL   string `json:"file_url" validate:"omitempty,url"`
	DriveLink string `json:"drive_link" validate:"omitempty,url"`
}

type CreateTaskRequest struct {
	Title               string              `json:"title" validate:"required,max=255"`
	Description         string              `json:"description"`
	Category            string              `json:"category" validate:"max=100"`
	Priority            string              `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status              string              `json:"status" validate:"omitempty,oneof=open in_progress pending completed cancelled"`
	AssignedTo          *string             `json:"assigned_to"`
	CustomerName        string              `json:"customer_name"`
	CustomerEmail       string              `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone       string              `json:"customer_phone"`
	CompanyName         string              `json:"company_name"`
	DueDate             *string             `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime             *string             `json:"due_time" validate:"omitempty,datetime=15:04"`
	ReminderDate        *string             `json:"reminder_date" validate:"omitempty,datetime=2006-01-02"`
	ReminderTime        *string             `json:"reminder_time" validate:"omitempty,datetime=15:04"`
	SendCompletionEmail *bool               `json:"send_completion_email"`
	VerifyEmail         bool                `json:"verify_email"`
	Attachments         []AttachmentRequest `json:"attachments" validate:"dive"`
}

// UpdateTaskRequest carries a partial update: nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title               *string `json:"title" validate:"omitempty,max=255"`
	Description         *string `json:"description"`
	Category            *string `json:"category" validate:"omitempty,max=100"`
	Priority            *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssignedTo          *string `json:"assigned_to"`
	CustomerName        *string `json:"customer_name"`
	CustomerEmail       *string `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone       *string `json:"customer_phone"`
	CompanyName         *string `json:"company_name"`
	DueDate             *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	DueTime             *string `json:"due_time" validate:"omitempty,datetime=15:04"`
	ReminderDate        *string `json:"reminder_date" validate:"omitempty,datetime=2006-01-02"`
	ReminderTime        *string `json:"reminder_time" validate:"omitempty,datetime=15:04"`
	ResolutionNotes     *string `json:"resolution_notes"`
	SendCompletionEmail *bool   `json:"send_completion_email"`
}

type SetStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=open in_progress pending completed cancelled"`
	ResolutionNotes *string `json:"resolution_notes"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type ListTasksQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=open in_progress pending completed cancelled"`
	Priority string `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Assignee string `query:"assignee"`
	Customer string `query:"customer"`
	DueFrom  string `query:"due_from" validate:"omitempty,datetime=2006-01-02"`
	DueTo    string `query:"due_to" validate:"omitempty,datetime=2006-01-02"`
	Search   string `query:"search"`
}

type CalendarQuery struct {
	From string `query:"from" validate:"required,datetime=2006-01-02"`
	To   string `query:"to" validate:"required,datetime=2006-01-02"`
}
