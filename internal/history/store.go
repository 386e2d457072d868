package history

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Store is the durable revision/audit history backed by SQLite. Events and
// revisions are append-only; field_extractions is a derived current-state
// projection.
//
// All mutating operations serialize on a store-wide mutex. That is
// deliberately coarse: volumes are per-user and local, and correctness of
// the audit trail outranks write throughput.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// Open opens (creating if necessary) the history database at dbPath and
// initializes the schema.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// WAL keeps readers unblocked while the single writer commits.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogExtraction appends one event to the audit log and returns its id.
// For extract events carrying a (file hash, field, value) triple the
// field_extractions projection is upserted: inserted with original_* set on
// first sight, otherwise current_* updated. Revision counts only change
// through AddRevision.
//
// Storage failures are returned, never swallowed: losing an audit record
// silently is unacceptable.
func (s *Store) LogExtraction(ev Event) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	details, err := json.Marshal(enhanceDetails(ev, now))
	if err != nil {
		return "", fmt.Errorf("marshal event details: %w", err)
	}
	var metadata any
	if ev.Metadata != nil {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return "", fmt.Errorf("marshal event metadata: %w", err)
		}
		metadata = string(raw)
	}

	message := displayMessage(ev)
	severity := severityFor(ev)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin event transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO extraction_history (
			id, timestamp, action, user_id, session_id,
			file_hash, file_name, file_size,
			details, metadata,
			duration_ms, memory_used_mb,
			success, error_message, error_type,
			display_message, severity, is_user_action
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, now.UnixNano(), ev.Action, ev.UserID, nullString(ev.SessionID),
		nullString(ev.FileHash), nullString(ev.FileName), nullInt64(ev.FileSize),
		string(details), metadata,
		ptrInt64(ev.DurationMS), ptrFloat64(ev.MemoryMB),
		ev.Success, nullString(ev.ErrorMessage), nullString(ev.ErrorType),
		message, severity, true,
	)
	if err != nil {
		return "", fmt.Errorf("insert history event: %w", err)
	}

	for _, factor := range ev.Factors {
		_, err = tx.Exec(`
			INSERT INTO confidence_factors (id, extraction_id, factor_name, score, weight, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), id, factor.Name, factor.Score, factor.Weight, nullString(factor.Description),
		)
		if err != nil {
			return "", fmt.Errorf("insert confidence factor: %w", err)
		}
	}

	if ev.Action == ActionExtract && ev.FileHash != "" && ev.FieldName != "" && ev.Value != "" {
		if err := upsertFieldExtraction(tx, ev.FileHash, ev.FieldName, ev.Value, ev.Confidence, now); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history event: %w", err)
	}
	return id, nil
}

// AddRevision appends an immutable revision record, rolls the field's
// current state forward and emits a revision event carrying the confidence
// delta. Returns the new revision id.
func (s *Store) AddRevision(in RevisionInput) (string, error) {
	if in.FileHash == "" || in.FieldName == "" {
		return "", fmt.Errorf("revision requires file hash and field name")
	}
	if in.ChangedBy != ChangedByUser && in.ChangedBy != ChangedBySystem {
		return "", fmt.Errorf("changed_by must be %q or %q", ChangedByUser, ChangedBySystem)
	}

	revisionID := uuid.New().String()
	now := time.Now()

	s.mu.Lock()
	err := func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin revision transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`
			INSERT INTO extraction_revisions (
				revision_id, parent_revision_id, timestamp,
				file_hash, field_name,
				old_value, new_value,
				old_confidence, new_confidence,
				changed_by, reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			revisionID, nullString(in.ParentRevisionID), now.UnixNano(),
			in.FileHash, in.FieldName,
			in.OldValue, in.NewValue,
			in.OldConfidence, in.NewConfidence,
			in.ChangedBy, nullString(in.Reason),
		)
		if err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}

		res, err := tx.Exec(`
			UPDATE field_extractions
			SET current_value = ?, current_confidence = ?,
			    revision_count = revision_count + 1, last_modified = ?
			WHERE file_hash = ? AND field_name = ?`,
			in.NewValue, in.NewConfidence, now.UnixNano(), in.FileHash, in.FieldName,
		)
		if err != nil {
			return fmt.Errorf("update field state: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update field state: %w", err)
		}
		if affected == 0 {
			// First ever record for this field arrived as a revision; the
			// replaced value becomes the original so lineage stays intact.
			originalValue := in.NewValue
			if in.OldValue != nil {
				originalValue = *in.OldValue
			}
			originalConfidence := in.NewConfidence
			if in.OldConfidence != nil {
				originalConfidence = *in.OldConfidence
			}
			_, err = tx.Exec(`
				INSERT INTO field_extractions (
					id, file_hash, field_name,
					current_value, current_confidence,
					original_value, original_confidence,
					revision_count, last_modified
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), in.FileHash, in.FieldName,
				in.NewValue, in.NewConfidence,
				originalValue, originalConfidence,
				1, now.UnixNano(),
			)
			if err != nil {
				return fmt.Errorf("insert field state: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit revision: %w", err)
		}
		return nil
	}()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	details := map[string]any{
		"revision_id": revisionID,
		"reason":      in.Reason,
	}
	if in.OldValue != nil {
		details["old_value"] = *in.OldValue
	}
	if in.OldConfidence != nil {
		details["old_confidence"] = *in.OldConfidence
		details["confidence_change"] = in.NewConfidence - *in.OldConfidence
	}
	conf := in.NewConfidence
	_, err = s.LogExtraction(Event{
		Action:     ActionRevision,
		UserID:     in.ChangedBy,
		FileHash:   in.FileHash,
		FieldName:  in.FieldName,
		Value:      in.NewValue,
		Confidence: &conf,
		Details:    details,
		Success:    true,
	})
	if err != nil {
		return "", fmt.Errorf("log revision event: %w", err)
	}

	return revisionID, nil
}

// SearchHistory returns matching events newest-first. All set filters are
// combined conjunctively; Limit defaults to 100.
func (s *Store) SearchHistory(f SearchFilters) ([]Entry, error) {
	query := `SELECT id, timestamp, action, file_hash, file_name,
		details, duration_ms, success, is_user_action, display_message, severity
		FROM extraction_history WHERE 1=1`
	var args []any

	if f.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, f.UserID)
	}
	if f.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, f.SessionID)
	}
	if f.FileHash != "" {
		query += " AND file_hash = ?"
		args = append(args, f.FileHash)
	}
	if len(f.Actions) > 0 {
		query += " AND action IN (?" + strings.Repeat(",?", len(f.Actions)-1) + ")"
		for _, a := range f.Actions {
			args = append(args, a)
		}
	}
	if f.SuccessOnly != nil {
		query += " AND success = ?"
		args = append(args, *f.SuccessOnly)
	}
	if f.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, f.Start.UnixNano())
	}
	if f.End != nil {
		query += " AND timestamp <= ?"
		args = append(args, f.End.UnixNano())
	}
	if f.SearchText != "" {
		query += " AND (display_message LIKE ? OR details LIKE ? OR file_name LIKE ?)"
		pattern := "%" + f.SearchText + "%"
		args = append(args, pattern, pattern, pattern)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			ts         int64
			fileHash   sql.NullString
			fileName   sql.NullString
			details    sql.NullString
			durationMS sql.NullInt64
			message    sql.NullString
			severity   sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.Action, &fileHash, &fileName,
			&details, &durationMS, &e.Success, &e.UserAction, &message, &severity); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.FileHash = fileHash.String
		e.FileName = fileName.String
		if e.FileName == "" {
			e.FileName = "Unknown"
		}
		e.DisplayMessage = message.String
		e.Severity = severity.String
		if durationMS.Valid {
			v := durationMS.Int64
			e.DurationMS = &v
		}
		if details.Valid {
			applyDetails(&e, details.String)
		}
		e.DisplayIcon, e.DisplayColor = actionDisplay(e.Action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

// GetFieldHistory returns the current extraction state for one field plus
// all its revisions, oldest first. ErrFieldNotFound if no state row exists.
func (s *Store) GetFieldHistory(fileHash, fieldName string) (*FieldHistory, error) {
	var (
		fh           FieldHistory
		lastModified int64
	)
	err := s.db.QueryRow(`
		SELECT field_name, current_value, current_confidence,
		       original_value, original_confidence, revision_count, last_modified
		FROM field_extractions
		WHERE file_hash = ? AND field_name = ?`,
		fileHash, fieldName,
	).Scan(&fh.FieldName, &fh.CurrentValue, &fh.CurrentConfidence,
		&fh.OriginalValue, &fh.OriginalConfidence, &fh.RevisionCount, &lastModified)
	if err == sql.ErrNoRows {
		return nil, ErrFieldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get field state: %w", err)
	}
	fh.LastModified = time.Unix(0, lastModified)

	rows, err := s.db.Query(`
		SELECT revision_id, parent_revision_id, timestamp, field_name,
		       old_value, new_value, old_confidence, new_confidence,
		       changed_by, reason
		FROM extraction_revisions
		WHERE file_hash = ? AND field_name = ?
		ORDER BY timestamp ASC, rowid ASC`,
		fileHash, fieldName,
	)
	if err != nil {
		return nil, fmt.Errorf("get field revisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r        Revision
			parent   sql.NullString
			ts       int64
			oldValue sql.NullString
			oldConf  sql.NullFloat64
			reason   sql.NullString
		)
		if err := rows.Scan(&r.RevisionID, &parent, &ts, &r.FieldName,
			&oldValue, &r.NewValue, &oldConf, &r.NewConfidence,
			&r.ChangedBy, &reason); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		r.ParentRevisionID = parent.String
		r.Timestamp = time.Unix(0, ts)
		if oldValue.Valid {
			r.OldValue = &oldValue.String
		}
		if oldConf.Valid {
			r.OldConfidence = &oldConf.Float64
		}
		r.Reason = reason.String
		fh.Revisions = append(fh.Revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return &fh, nil
}

// GetFileSummary aggregates all history for a file hash. ErrFileNotFound if
// the hash has never been seen.
func (s *Store) GetFileSummary(fileHash string) (*FileSummary, error) {
	summary := &FileSummary{FileHash: fileHash}

	var (
		fileName   sql.NullString
		uploadDate sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT file_name, MIN(timestamp)
		FROM extraction_history
		WHERE file_hash = ?
		GROUP BY file_hash`,
		fileHash,
	).Scan(&fileName, &uploadDate)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file info: %w", err)
	}
	summary.FileName = fileName.String
	summary.UploadDate = time.Unix(0, uploadDate.Int64)

	var lastModified sql.NullInt64
	err = s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       MAX(timestamp)
		FROM extraction_history
		WHERE file_hash = ? AND action = ?`,
		fileHash, ActionExtract,
	).Scan(&summary.TotalExtractions, &summary.SuccessfulExtractions,
		&summary.FailedExtractions, &lastModified)
	if err != nil {
		return nil, fmt.Errorf("get extraction stats: %w", err)
	}
	if lastModified.Valid {
		summary.LastModified = time.Unix(0, lastModified.Int64)
	} else {
		summary.LastModified = summary.UploadDate
	}

	rows, err := s.db.Query(`
		SELECT field_name, current_confidence, revision_count
		FROM field_extractions
		WHERE file_hash = ?`,
		fileHash,
	)
	if err != nil {
		return nil, fmt.Errorf("get field states: %w", err)
	}
	defer rows.Close()

	var totalConfidence float64
	for rows.Next() {
		var (
			name       string
			confidence sql.NullFloat64
			revisions  int
		)
		if err := rows.Scan(&name, &confidence, &revisions); err != nil {
			return nil, fmt.Errorf("scan field state: %w", err)
		}
		summary.FieldsExtracted = append(summary.FieldsExtracted, name)
		totalConfidence += confidence.Float64
		summary.RevisionCount += revisions
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate field states: %w", err)
	}
	if n := len(summary.FieldsExtracted); n > 0 {
		summary.AverageConfidence = totalConfidence / float64(n)
	}

	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM extraction_history
		WHERE file_hash = ? AND action = ?`,
		fileHash, ActionExport,
	).Scan(&summary.ExportCount)
	if err != nil {
		return nil, fmt.Errorf("get export count: %w", err)
	}

	return summary, nil
}

// GetStatistics summarizes audit activity. hours > 0 bounds the overall and
// per-type counts to the trailing window; the 1h/24h/7d counters are always
// computed over their fixed windows.
func (s *Store) GetStatistics(hours int) (*Statistics, error) {
	stats := &Statistics{
		OperationsByType:  make(map[string]int),
		OperationsPerUser: make(map[string]int),
	}
	now := time.Now()

	windowClause := ""
	var windowArgs []any
	if hours > 0 {
		windowClause = " WHERE timestamp > ?"
		windowArgs = append(windowArgs, now.Add(-time.Duration(hours)*time.Hour).UnixNano())
	}

	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0)
		FROM extraction_history`+windowClause, windowArgs...,
	).Scan(&stats.TotalOperations, &stats.SuccessfulOperations)
	if err != nil {
		return nil, fmt.Errorf("get operation counts: %w", err)
	}
	stats.FailedOperations = stats.TotalOperations - stats.SuccessfulOperations
	if stats.TotalOperations > 0 {
		stats.SuccessRate = float64(stats.SuccessfulOperations) / float64(stats.TotalOperations)
	} else {
		stats.SuccessRate = 1.0
	}

	rows, err := s.db.Query(`
		SELECT action, COUNT(*) FROM extraction_history`+windowClause+` GROUP BY action`,
		windowArgs...)
	if err != nil {
		return nil, fmt.Errorf("get per-action counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			action string
			count  int
		)
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("scan per-action count: %w", err)
		}
		stats.OperationsByType[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate per-action counts: %w", err)
	}

	for _, window := range []struct {
		dest *int
		age  time.Duration
	}{
		{&stats.OperationsLastHour, time.Hour},
		{&stats.OperationsLast24h, 24 * time.Hour},
		{&stats.OperationsLast7d, 7 * 24 * time.Hour},
	} {
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM extraction_history WHERE timestamp > ?",
			now.Add(-window.age).UnixNano(),
		).Scan(window.dest)
		if err != nil {
			return nil, fmt.Errorf("get windowed count: %w", err)
		}
	}

	err = s.db.QueryRow(
		"SELECT COUNT(DISTINCT file_hash) FROM extraction_history WHERE file_hash IS NOT NULL",
	).Scan(&stats.UniqueFilesProcessed)
	if err != nil {
		return nil, fmt.Errorf("get unique file count: %w", err)
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM extraction_history WHERE action = ?", ActionExtract,
	).Scan(&stats.TotalExtractions)
	if err != nil {
		return nil, fmt.Errorf("get extraction count: %w", err)
	}

	var avgConfidence sql.NullFloat64
	err = s.db.QueryRow(
		"SELECT AVG(current_confidence) FROM field_extractions WHERE current_confidence IS NOT NULL",
	).Scan(&avgConfidence)
	if err != nil {
		return nil, fmt.Errorf("get average confidence: %w", err)
	}
	stats.AverageConfidence = avgConfidence.Float64

	err = s.db.QueryRow(
		"SELECT COUNT(DISTINCT user_id) FROM extraction_history",
	).Scan(&stats.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("get user count: %w", err)
	}

	userRows, err := s.db.Query(`
		SELECT user_id, COUNT(*) AS count
		FROM extraction_history
		GROUP BY user_id
		ORDER BY count DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("get per-user counts: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var (
			user  string
			count int
		)
		if err := userRows.Scan(&user, &count); err != nil {
			return nil, fmt.Errorf("scan per-user count: %w", err)
		}
		stats.OperationsPerUser[user] = count
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate per-user counts: %w", err)
	}

	var avgDuration, avgMemory sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT AVG(duration_ms), AVG(memory_used_mb)
		FROM extraction_history
		WHERE duration_ms IS NOT NULL`,
	).Scan(&avgDuration, &avgMemory)
	if err != nil {
		return nil, fmt.Errorf("get performance averages: %w", err)
	}
	stats.AverageDurationMS = avgDuration.Float64
	stats.AverageMemoryMB = avgMemory.Float64

	return stats, nil
}

// PruneHistory deletes audit events older than cutoff. Revisions and field
// state are never pruned; they are the system of record for field lineage.
func (s *Store) PruneHistory(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM extraction_history WHERE timestamp < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return n, nil
}

// upsertFieldExtraction maintains the current-state projection for extract
// events. Revision counts are untouched here; only AddRevision increments.
func upsertFieldExtraction(tx *sql.Tx, fileHash, fieldName, value string, confidence *float64, now time.Time) error {
	res, err := tx.Exec(`
		UPDATE field_extractions
		SET current_value = ?, current_confidence = ?, last_modified = ?
		WHERE file_hash = ? AND field_name = ?`,
		value, ptrFloat64(confidence), now.UnixNano(), fileHash, fieldName,
	)
	if err != nil {
		return fmt.Errorf("update field projection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update field projection: %w", err)
	}
	if affected > 0 {
		return nil
	}
	_, err = tx.Exec(`
		INSERT INTO field_extractions (
			id, file_hash, field_name,
			current_value, current_confidence,
			original_value, original_confidence,
			revision_count, last_modified
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		uuid.New().String(), fileHash, fieldName,
		value, ptrFloat64(confidence),
		value, ptrFloat64(confidence),
		now.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert field projection: %w", err)
	}
	return nil
}

// enhanceDetails merges caller details with the standard per-event keys.
func enhanceDetails(ev Event, now time.Time) map[string]any {
	details := make(map[string]any, len(ev.Details)+4)
	for k, v := range ev.Details {
		details[k] = v
	}
	if ev.FieldName != "" {
		details["field_name"] = ev.FieldName
	}
	if ev.Value != "" {
		details["value"] = ev.Value
	}
	if ev.Confidence != nil {
		details["confidence"] = *ev.Confidence
	}
	details["timestamp_iso"] = now.Format(time.RFC3339Nano)
	return details
}

// applyDetails lifts the well-known detail keys onto a history entry.
func applyDetails(e *Entry, raw string) {
	var details map[string]any
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return
	}
	if v, ok := details["field_name"].(string); ok {
		e.FieldName = v
	}
	if v, ok := details["old_value"].(string); ok {
		e.OldValue = v
	}
	if v, ok := details["value"].(string); ok {
		e.NewValue = v
	} else if v, ok := details["new_value"].(string); ok {
		e.NewValue = v
	}
	if v, ok := details["confidence"].(float64); ok {
		e.Confidence = &v
	}
	if v, ok := details["confidence_change"].(float64); ok {
		e.ConfidenceChange = &v
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func ptrInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptrFloat64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
