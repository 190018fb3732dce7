package constants

// Layouts for the date and time columns, stored as text so they sort lexically.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
