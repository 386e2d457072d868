package history

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestLogExtractionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id, err := store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		SessionID:  "sess-1",
		FileHash:   "h1",
		FileName:   "check.pdf",
		FileSize:   2048,
		FieldName:  "amount",
		Value:      "100.00",
		Confidence: floatPtr(0.92),
		Success:    true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := store.SearchHistory(SearchFilters{FileHash: "h1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, id, e.ID)
	assert.Equal(t, ActionExtract, e.Action)
	assert.Equal(t, "check.pdf", e.FileName)
	assert.Equal(t, "amount", e.FieldName)
	assert.Equal(t, "100.00", e.NewValue)
	require.NotNil(t, e.Confidence)
	assert.Equal(t, 0.92, *e.Confidence)
	assert.True(t, e.Success)
	assert.Equal(t, SeveritySuccess, e.Severity)
	assert.Contains(t, e.DisplayMessage, "amount")
	assert.Equal(t, "FileText", e.DisplayIcon)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
}

func TestLogExtractionCreatesFieldState(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		FileHash:   "h1",
		FieldName:  "amount",
		Value:      "100.00",
		Confidence: floatPtr(0.8),
		Success:    true,
	})
	require.NoError(t, err)

	fh, err := store.GetFieldHistory("h1", "amount")
	require.NoError(t, err)
	assert.Equal(t, "100.00", fh.CurrentValue)
	assert.Equal(t, 0.8, fh.CurrentConfidence)
	assert.Equal(t, "100.00", fh.OriginalValue)
	assert.Equal(t, 0.8, fh.OriginalConfidence)
	assert.Zero(t, fh.RevisionCount)
	assert.Empty(t, fh.Revisions)

	// Re-extraction updates current but never original.
	_, err = store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		FileHash:   "h1",
		FieldName:  "amount",
		Value:      "105.00",
		Confidence: floatPtr(0.9),
		Success:    true,
	})
	require.NoError(t, err)

	fh, err = store.GetFieldHistory("h1", "amount")
	require.NoError(t, err)
	assert.Equal(t, "105.00", fh.CurrentValue)
	assert.Equal(t, "100.00", fh.OriginalValue)
	assert.Zero(t, fh.RevisionCount)
}

func TestLogExtractionWithFactors(t *testing.T) {
	store := newTestStore(t)

	id, err := store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		FileHash:   "h1",
		FieldName:  "ssn",
		Value:      "123-45-6789",
		Confidence: floatPtr(1.0),
		Factors: []ConfidenceFactor{
			{Name: "pattern_match", Score: 0.4, Weight: 0.4},
			{Name: "clarity", Score: 0.2, Weight: 0.2, Description: "canonical format"},
		},
		Success: true,
	})
	require.NoError(t, err)

	var count int
	err = store.db.QueryRow(
		"SELECT COUNT(*) FROM confidence_factors WHERE extraction_id = ?", id,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddRevision(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		FileHash:   "h1",
		FieldName:  "amount",
		Value:      "100.00",
		Confidence: floatPtr(0.8),
		Success:    true,
	})
	require.NoError(t, err)

	revisionID, err := store.AddRevision(RevisionInput{
		FileHash:      "h1",
		FieldName:     "amount",
		OldValue:      strPtr("100.00"),
		NewValue:      "200.00",
		OldConfidence: floatPtr(0.8),
		NewConfidence: 0.95,
		ChangedBy:     ChangedByUser,
		Reason:        "typo in extraction",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, revisionID)

	fh, err := store.GetFieldHistory("h1", "amount")
	require.NoError(t, err)
	assert.Equal(t, "200.00", fh.CurrentValue)
	assert.Equal(t, 0.95, fh.CurrentConfidence)
	assert.Equal(t, "100.00", fh.OriginalValue)
	assert.Equal(t, 1, fh.RevisionCount)
	require.Len(t, fh.Revisions, 1)

	r := fh.Revisions[0]
	assert.Equal(t, revisionID, r.RevisionID)
	require.NotNil(t, r.OldValue)
	assert.Equal(t, "100.00", *r.OldValue)
	assert.Equal(t, "200.00", r.NewValue)
	require.NotNil(t, r.OldConfidence)
	assert.Equal(t, 0.8, *r.OldConfidence)
	assert.Equal(t, 0.95, r.NewConfidence)
	assert.Equal(t, ChangedByUser, r.ChangedBy)
	assert.Equal(t, "typo in extraction", r.Reason)

	// The revision leaves an audit event behind.
	entries, err := store.SearchHistory(SearchFilters{Actions: []string{ActionRevision}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "amount", entries[0].FieldName)
	assert.Equal(t, "200.00", entries[0].NewValue)
	require.NotNil(t, entries[0].ConfidenceChange)
	assert.InDelta(t, 0.15, *entries[0].ConfidenceChange, 1e-9)
}

func TestAddRevisionChainOrdering(t *testing.T) {
	store := newTestStore(t)

	const n = 5
	prev := ""
	for i := 1; i <= n; i++ {
		id, err := store.AddRevision(RevisionInput{
			FileHash:         "h1",
			FieldName:        "amount",
			NewValue:         fmt.Sprintf("%d.00", i*100),
			NewConfidence:    0.9,
			ChangedBy:        ChangedBySystem,
			ParentRevisionID: prev,
		})
		require.NoError(t, err)
		prev = id
	}

	fh, err := store.GetFieldHistory("h1", "amount")
	require.NoError(t, err)
	assert.Equal(t, n, fh.RevisionCount)
	require.Len(t, fh.Revisions, n)
	for i, r := range fh.Revisions {
		assert.Equal(t, fmt.Sprintf("%d.00", (i+1)*100), r.NewValue, "revisions must come back oldest first")
	}
	assert.Equal(t, "500.00", fh.CurrentValue)
}

func TestAddRevisionWithoutPriorExtraction(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRevision(RevisionInput{
		FileHash:      "h2",
		FieldName:     "date",
		OldValue:      strPtr("01/01/2020"),
		NewValue:      "01/02/2020",
		OldConfidence: floatPtr(0.5),
		NewConfidence: 0.9,
		ChangedBy:     ChangedByUser,
	})
	require.NoError(t, err)

	fh, err := store.GetFieldHistory("h2", "date")
	require.NoError(t, err)
	assert.Equal(t, "01/02/2020", fh.CurrentValue)
	assert.Equal(t, "01/01/2020", fh.OriginalValue, "the replaced value becomes the original")
	assert.Equal(t, 0.5, fh.OriginalConfidence)
	assert.Equal(t, 1, fh.RevisionCount)
}

func TestAddRevisionValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AddRevision(RevisionInput{FieldName: "amount", NewValue: "1", NewConfidence: 0.5, ChangedBy: ChangedByUser})
	assert.Error(t, err, "missing file hash")

	_, err = store.AddRevision(RevisionInput{FileHash: "h", FieldName: "amount", NewValue: "1", NewConfidence: 0.5, ChangedBy: "robot"})
	assert.Error(t, err, "unknown changed_by")
}

func TestGetFieldHistoryNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetFieldHistory("missing", "amount")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestSearchHistoryFilters(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.LogExtraction(Event{
			Action:   ActionExtract,
			UserID:   "alice",
			FileHash: "h1",
			FileName: "check.pdf",
			Success:  true,
		})
		require.NoError(t, err)
	}
	_, err := store.LogExtraction(Event{
		Action:       ActionError,
		UserID:       "bob",
		FileHash:     "h2",
		FileName:     "other.pdf",
		Success:      false,
		ErrorMessage: "unreadable document",
	})
	require.NoError(t, err)

	all, err := store.SearchHistory(SearchFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].Timestamp.Before(all[i].Timestamp), "entries come back newest first")
	}

	alice, err := store.SearchHistory(SearchFilters{UserID: "alice"})
	require.NoError(t, err)
	assert.Len(t, alice, 3)

	failed := false
	failures, err := store.SearchHistory(SearchFilters{SuccessOnly: &failed})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, SeverityError, failures[0].Severity)
	assert.Contains(t, failures[0].DisplayMessage, "unreadable document")

	byText, err := store.SearchHistory(SearchFilters{SearchText: "other.pdf"})
	require.NoError(t, err)
	assert.Len(t, byText, 1)

	limited, err := store.SearchHistory(SearchFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGetFileSummary(t *testing.T) {
	store := newTestStore(t)

	for _, f := range []struct {
		field string
		value string
		conf  float64
	}{
		{"amount", "100.00", 0.8},
		{"date", "12/31/2023", 1.0},
	} {
		_, err := store.LogExtraction(Event{
			Action:     ActionExtract,
			UserID:     "alice",
			FileHash:   "h1",
			FileName:   "check.pdf",
			FieldName:  f.field,
			Value:      f.value,
			Confidence: floatPtr(f.conf),
			Success:    true,
		})
		require.NoError(t, err)
	}
	_, err := store.LogExtraction(Event{
		Action:   ActionExport,
		UserID:   "alice",
		FileHash: "h1",
		FileName: "check.pdf",
		Success:  true,
	})
	require.NoError(t, err)

	summary, err := store.GetFileSummary("h1")
	require.NoError(t, err)
	assert.Equal(t, "check.pdf", summary.FileName)
	assert.Equal(t, 2, summary.TotalExtractions)
	assert.Equal(t, 2, summary.SuccessfulExtractions)
	assert.Zero(t, summary.FailedExtractions)
	assert.ElementsMatch(t, []string{"amount", "date"}, summary.FieldsExtracted)
	assert.InDelta(t, 0.9, summary.AverageConfidence, 1e-9)
	assert.Equal(t, 1, summary.ExportCount)
	assert.False(t, summary.LastModified.Before(summary.UploadDate))
}

func TestGetFileSummaryNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetFileSummary("nope")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetStatistics(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 4; i++ {
		_, err := store.LogExtraction(Event{
			Action:     ActionExtract,
			UserID:     "alice",
			FileHash:   fmt.Sprintf("h%d", i%2),
			FieldName:  "amount",
			Value:      "10.00",
			Confidence: floatPtr(0.75),
			Success:    true,
		})
		require.NoError(t, err)
	}
	_, err := store.LogExtraction(Event{
		Action:  ActionError,
		UserID:  "bob",
		Success: false,
	})
	require.NoError(t, err)

	stats, err := store.GetStatistics(0)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalOperations)
	assert.Equal(t, 4, stats.SuccessfulOperations)
	assert.Equal(t, 1, stats.FailedOperations)
	assert.InDelta(t, 0.8, stats.SuccessRate, 1e-9)
	assert.Equal(t, 4, stats.OperationsByType[ActionExtract])
	assert.Equal(t, 1, stats.OperationsByType[ActionError])
	assert.Equal(t, 5, stats.OperationsLastHour)
	assert.Equal(t, 5, stats.OperationsLast24h)
	assert.Equal(t, 2, stats.UniqueFilesProcessed)
	assert.Equal(t, 4, stats.TotalExtractions)
	assert.Equal(t, 2, stats.ActiveUsers)
	assert.Equal(t, 5, stats.OperationsPerUser["alice"]+stats.OperationsPerUser["bob"])
}

func TestGetStatisticsEmpty(t *testing.T) {
	store := newTestStore(t)
	stats, err := store.GetStatistics(0)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOperations)
	assert.Equal(t, 1.0, stats.SuccessRate, "no operations means nothing failed")
}

func TestPruneHistory(t *testing.T) {
	store := newTestStore(t)

	_, err := store.LogExtraction(Event{
		Action:     ActionExtract,
		UserID:     "alice",
		FileHash:   "h1",
		FieldName:  "amount",
		Value:      "100.00",
		Confidence: floatPtr(0.8),
		Success:    true,
	})
	require.NoError(t, err)
	_, err = store.AddRevision(RevisionInput{
		FileHash:      "h1",
		FieldName:     "amount",
		NewValue:      "200.00",
		NewConfidence: 0.9,
		ChangedBy:     ChangedByUser,
	})
	require.NoError(t, err)

	deleted, err := store.PruneHistory(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Positive(t, deleted)

	entries, err := store.SearchHistory(SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Field lineage survives pruning.
	fh, err := store.GetFieldHistory("h1", "amount")
	require.NoError(t, err)
	assert.Equal(t, 1, fh.RevisionCount)
	require.Len(t, fh.Revisions, 1)

	deleted, err = store.PruneHistory(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
