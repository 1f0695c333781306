package incident

import "time"

type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

type Incident struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	ReporterID  string    `json:"reporter_id,omitempty"`
	Attachments []string  `json:"attachments"`
	ReportedAt  time.Time `json:"reported_at"`
}

type CreateInput struct {
	Title       string   `validate:"required,max=255"`
	Description string   `validate:"required"`
	Severity    Severity `validate:"required"`
}

// UpdateInput fields left empty keep their current value.
type UpdateInput struct {
	Title       string
	Description string
	Severity    Severity
}

type ListFilter struct {
	ReporterID string
}

// Attachment is an uploaded evidence file on its way to object storage.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}
