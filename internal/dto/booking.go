package dto

// ClassView is a class rendered for display in a requested timezone.
type ClassView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Instructor        string `json:"instructor"`
	DisplayTime       string `json:"datetime"`
	RemainingCapacity int    `json:"available_slots"`
}

// BookClassRequest captures the booking payload.
type BookClassRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email"`
}

// BookClassResponse acknowledges a confirmed booking.
type BookClassResponse struct {
	Message   string `json:"message"`
	BookingID string `json:"booking_id"`
}

// ExportFormat enumerates booking export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// BookingExport is a rendered export document.
type BookingExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
