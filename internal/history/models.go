package history

import (
	"errors"
	"time"
)

// Audited action types. Values are stable identifiers persisted in the
// event log.
const (
	ActionUpload           = "upload"
	ActionExtract          = "extract"
	ActionEdit             = "edit"
	ActionExport           = "export"
	ActionDelete           = "delete"
	ActionView             = "view"
	ActionError            = "error"
	ActionSecurity         = "security"
	ActionRevision         = "revision"
	ActionConfidenceChange = "confidence_change"
	ActionValidation       = "validation"
)

// Who made a change.
const (
	ChangedByUser   = "user"
	ChangedBySystem = "system"
)

var (
	// ErrFieldNotFound is returned when no extraction state exists for the
	// requested (file, field) pair.
	ErrFieldNotFound = errors.New("field extraction state not found")
	// ErrFileNotFound is returned when no history exists for the requested
	// file hash.
	ErrFileNotFound = errors.New("no history for file hash")
)

// ConfidenceFactor is one named, weighted component of a confidence score,
// persisted per event for the explain-confidence use case.
type ConfidenceFactor struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

// Event is one operation to append to the audit log. Zero values mean
// "absent" for the optional fields.
type Event struct {
	Action    string
	UserID    string
	SessionID string

	FileHash string
	FileName string
	FileSize int64

	FieldName  string
	Value      string
	Confidence *float64
	Factors    []ConfidenceFactor

	Details  map[string]any
	Metadata map[string]any

	DurationMS *int64
	MemoryMB   *float64

	Success      bool
	ErrorMessage string
	ErrorType    string
}

// Entry is one row of the history view, enriched with display hints.
type Entry struct {
	ID               string     `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	FileName         string     `json:"file_name"`
	FileHash         string     `json:"file_hash"`
	Action           string     `json:"action"`
	FieldName        string     `json:"field_name,omitempty"`
	OldValue         string     `json:"old_value,omitempty"`
	NewValue         string     `json:"new_value,omitempty"`
	Confidence       *float64   `json:"confidence,omitempty"`
	ConfidenceChange *float64   `json:"confidence_change,omitempty"`
	UserAction       bool       `json:"user_action"`
	Success          bool       `json:"success"`
	DurationMS       *int64     `json:"duration_ms,omitempty"`
	DisplayMessage   string     `json:"display_message"`
	Severity         string     `json:"severity"`
	DisplayIcon      string     `json:"display_icon"`
	DisplayColor     string     `json:"display_color"`
}

// Revision is one immutable recorded change to a single field's value.
type Revision struct {
	RevisionID       string    `json:"revision_id"`
	ParentRevisionID string    `json:"parent_revision_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	FieldName        string    `json:"field_name"`
	OldValue         *string   `json:"old_value,omitempty"`
	NewValue         string    `json:"new_value"`
	OldConfidence    *float64  `json:"old_confidence,omitempty"`
	NewConfidence    float64   `json:"new_confidence"`
	ChangedBy        string    `json:"changed_by"`
	Reason           string    `json:"reason,omitempty"`
}

// RevisionInput carries the parameters for AddRevision. Old values are
// pointers: nil means the revision replaces nothing (first recorded value).
type RevisionInput struct {
	FileHash         string
	FieldName        string
	OldValue         *string
	NewValue         string
	OldConfidence    *float64
	NewConfidence    float64
	ChangedBy        string
	Reason           string
	ParentRevisionID string
}

// FieldHistory is the current state of one (file, field) pair plus its
// complete revision sequence, oldest first.
type FieldHistory struct {
	FieldName         string     `json:"field_name"`
	CurrentValue      string     `json:"current_value"`
	CurrentConfidence float64    `json:"current_confidence"`
	OriginalValue     string     `json:"original_value"`
	OriginalConfidence float64   `json:"original_confidence"`
	RevisionCount     int        `json:"revision_count"`
	Revisions         []Revision `json:"revisions"`
	LastModified      time.Time  `json:"last_modified"`
}

// FileSummary aggregates all history for one file.
type FileSummary struct {
	FileHash              string    `json:"file_hash"`
	FileName              string    `json:"file_name"`
	UploadDate            time.Time `json:"upload_date"`
	LastModified          time.Time `json:"last_modified"`
	TotalExtractions      int       `json:"total_extractions"`
	SuccessfulExtractions int       `json:"successful_extractions"`
	FailedExtractions     int       `json:"failed_extractions"`
	AverageConfidence     float64   `json:"average_confidence"`
	FieldsExtracted       []string  `json:"fields_extracted"`
	RevisionCount         int       `json:"revision_count"`
	ExportCount           int       `json:"export_count"`
}

// SearchFilters narrow a history search. All set filters combine with AND.
type SearchFilters struct {
	UserID      string
	SessionID   string
	FileHash    string
	Actions     []string
	SuccessOnly *bool
	Start       *time.Time
	End         *time.Time
	SearchText  string
	Limit       int
	Offset      int
}

// Statistics summarizes audit activity.
type Statistics struct {
	TotalOperations      int     `json:"total_operations"`
	SuccessfulOperations int     `json:"successful_operations"`
	FailedOperations     int     `json:"failed_operations"`
	SuccessRate          float64 `json:"success_rate"`

	OperationsByType map[string]int `json:"operations_by_type"`

	OperationsLastHour int `json:"operations_last_hour"`
	OperationsLast24h  int `json:"operations_last_24h"`
	OperationsLast7d   int `json:"operations_last_7d"`

	UniqueFilesProcessed int     `json:"unique_files_processed"`
	TotalExtractions     int     `json:"total_extractions"`
	AverageConfidence    float64 `json:"average_confidence"`

	ActiveUsers       int            `json:"active_users"`
	OperationsPerUser map[string]int `json:"operations_per_user"`

	AverageDurationMS float64 `json:"average_duration_ms"`
	AverageMemoryMB   float64 `json:"average_memory_mb"`
}
