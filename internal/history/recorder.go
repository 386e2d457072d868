package history

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/docuvault/pdfextract/internal/extract"
	"github.com/docuvault/pdfextract/internal/security"
)

// ExtractionRecorder persists finished extraction runs into the history
// store: one extract event per field plus a run summary, all keyed by the
// document's content hash.
type ExtractionRecorder struct {
	store  *Store
	userID string
	logger *zap.Logger
}

var _ extract.Recorder = (*ExtractionRecorder)(nil)

// NewExtractionRecorder creates a recorder writing on behalf of userID.
func NewExtractionRecorder(store *Store, userID string, logger *zap.Logger) *ExtractionRecorder {
	return &ExtractionRecorder{store: store, userID: userID, logger: logger}
}

// RecordRun writes the audit trail for one extraction run. Any storage
// failure is returned; an extraction without its audit record must surface
// as an error.
func (r *ExtractionRecorder) RecordRun(path, sessionID string, result *extract.ExtractionResult) error {
	fileHash, err := security.FileHash(path)
	if err != nil {
		return fmt.Errorf("hash document for history: %w", err)
	}

	var fileSize int64
	if info, err := os.Stat(path); err == nil {
		fileSize = info.Size()
	}

	durationMS := result.ProcessingTime.Milliseconds()
	memoryMB := security.MemoryMB()
	fileName := filepath.Base(path)

	if result.Status == extract.StatusError {
		_, err := r.store.LogExtraction(Event{
			Action:       ActionExtract,
			UserID:       r.userID,
			SessionID:    sessionID,
			FileHash:     fileHash,
			FileName:     fileName,
			FileSize:     fileSize,
			DurationMS:   &durationMS,
			MemoryMB:     &memoryMB,
			Success:      false,
			ErrorMessage: result.ErrorMessage,
			ErrorType:    "extraction_error",
		})
		if err != nil {
			return fmt.Errorf("record failed run: %w", err)
		}
		return nil
	}

	for _, field := range result.Fields {
		confidence := field.Confidence
		_, err := r.store.LogExtraction(Event{
			Action:     ActionExtract,
			UserID:     r.userID,
			SessionID:  sessionID,
			FileHash:   fileHash,
			FileName:   fileName,
			FileSize:   fileSize,
			FieldName:  field.Name,
			Value:      field.Value,
			Confidence: &confidence,
			Details: map[string]any{
				"method": field.Method,
				"page":   field.Page,
			},
			Success: true,
		})
		if err != nil {
			return fmt.Errorf("record field extraction: %w", err)
		}
	}

	overall := result.Confidence
	_, err = r.store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     r.userID,
		SessionID:  sessionID,
		FileHash:   fileHash,
		FileName:   fileName,
		FileSize:   fileSize,
		Confidence: &overall,
		Details: map[string]any{
			"fields_found": len(result.Fields),
			"page_count":   result.PageCount,
		},
		DurationMS: &durationMS,
		MemoryMB:   &memoryMB,
		Success:    true,
	})
	if err != nil {
		return fmt.Errorf("record run summary: %w", err)
	}

	r.logger.Debug("extraction run recorded",
		zap.String("file_hash", fileHash),
		zap.Int("fields", len(result.Fields)))
	return nil
}
