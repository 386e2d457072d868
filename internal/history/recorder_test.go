package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docuvault/pdfextract/internal/extract"
	"github.com/docuvault/pdfextract/internal/security"
)

func writeTestDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "check.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test document"), 0o600))
	return path
}

func TestRecordRunPersistsFields(t *testing.T) {
	store := newTestStore(t)
	recorder := NewExtractionRecorder(store, "alice", zap.NewNop())
	path := writeTestDoc(t)

	result := &extract.ExtractionResult{
		Fields: []extract.ExtractedField{
			{Name: "check_number", Value: "12345", Confidence: 1.0, Page: 1, Method: extract.MethodText},
			{Name: "amount", Value: "1,234.56", Confidence: 0.95, Page: 1, Method: extract.MethodTable},
		},
		Confidence:     0.975,
		PageCount:      1,
		ProcessingTime: 40 * time.Millisecond,
		Filename:       "check.pdf",
		Status:         extract.StatusCompleted,
	}

	require.NoError(t, recorder.RecordRun(path, "sess-9", result))

	hash, err := security.FileHash(path)
	require.NoError(t, err)

	entries, err := store.SearchHistory(SearchFilters{FileHash: hash})
	require.NoError(t, err)
	assert.Len(t, entries, 3, "one event per field plus the run summary")
	for _, e := range entries {
		assert.Equal(t, ActionExtract, e.Action)
		assert.True(t, e.Success)
		assert.Equal(t, "check.pdf", e.FileName)
	}

	fh, err := store.GetFieldHistory(hash, "check_number")
	require.NoError(t, err)
	assert.Equal(t, "12345", fh.CurrentValue)
	assert.Equal(t, 1.0, fh.CurrentConfidence)

	fh, err = store.GetFieldHistory(hash, "amount")
	require.NoError(t, err)
	assert.Equal(t, "1,234.56", fh.CurrentValue)
}

func TestRecordRunFailedExtraction(t *testing.T) {
	store := newTestStore(t)
	recorder := NewExtractionRecorder(store, "alice", zap.NewNop())
	path := writeTestDoc(t)

	result := &extract.ExtractionResult{
		Filename:       "check.pdf",
		Status:         extract.StatusError,
		ErrorMessage:   extract.ErrMsgNoText,
		ProcessingTime: 5 * time.Millisecond,
	}

	require.NoError(t, recorder.RecordRun(path, "", result))

	failed := false
	entries, err := store.SearchHistory(SearchFilters{SuccessOnly: &failed})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, SeverityError, entries[0].Severity)
	assert.Contains(t, entries[0].DisplayMessage, extract.ErrMsgNoText)
}

func TestRecordRunMissingFile(t *testing.T) {
	store := newTestStore(t)
	recorder := NewExtractionRecorder(store, "alice", zap.NewNop())

	err := recorder.RecordRun(filepath.Join(t.TempDir(), "gone.pdf"), "", &extract.ExtractionResult{
		Status: extract.StatusCompleted,
	})
	assert.Error(t, err)
}
