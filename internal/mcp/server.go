package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/docuvault/pdfextract/internal/config"
	"github.com/docuvault/pdfextract/internal/extract"
	"github.com/docuvault/pdfextract/internal/history"
	"github.com/docuvault/pdfextract/internal/security"
)

// Server exposes extraction and history operations over MCP. All tools
// operate on local files only; nothing leaves the machine.
type Server struct {
	config    *config.Config
	processor *extract.Processor
	store     *history.Store
	validator *security.PathValidator
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, processor *extract.Processor, store *history.Store, validator *security.PathValidator, logger *zap.Logger) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if validator == nil {
		return nil, fmt.Errorf("validator cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		store:     store,
		validator: validator,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	processTool := mcp.NewTool(
		"process_pdf",
		mcp.WithDescription("Extract structured fields from a PDF document with confidence scores"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the document directory"),
		),
		mcp.WithString("session_id",
			mcp.Description("Optional session identifier grouping this run's history events"),
		),
	)
	s.mcpServer.AddTool(processTool, s.handleProcessPDF)

	searchTool := mcp.NewTool(
		"search_history",
		mcp.WithDescription("Search the extraction audit history"),
		mcp.WithString("user_id",
			mcp.Description("Filter by user identifier"),
		),
		mcp.WithString("file_hash",
			mcp.Description("Filter by document hash"),
		),
		mcp.WithString("action",
			mcp.Description("Filter by action type (upload, extract, edit, export, revision, ...)"),
		),
		mcp.WithString("search_text",
			mcp.Description("Free-text search over messages, details and file names"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 100)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchHistory)

	fieldHistoryTool := mcp.NewTool(
		"get_field_history",
		mcp.WithDescription("Get the current value and full revision chain for one extracted field"),
		mcp.WithString("file_hash",
			mcp.Required(),
			mcp.Description("Document hash the field belongs to"),
		),
		mcp.WithString("field_name",
			mcp.Required(),
			mcp.Description("Field name, e.g. check_number or amount"),
		),
	)
	s.mcpServer.AddTool(fieldHistoryTool, s.handleGetFieldHistory)

	fileSummaryTool := mcp.NewTool(
		"get_file_summary",
		mcp.WithDescription("Summarize all extraction activity for one document"),
		mcp.WithString("file_hash",
			mcp.Required(),
			mcp.Description("Document hash to summarize"),
		),
	)
	s.mcpServer.AddTool(fileSummaryTool, s.handleGetFileSummary)

	statisticsTool := mcp.NewTool(
		"get_statistics",
		mcp.WithDescription("Get aggregate extraction and audit statistics"),
		mcp.WithNumber("hours",
			mcp.Description("Restrict overall counts to the trailing window in hours (0 = all time)"),
		),
	)
	s.mcpServer.AddTool(statisticsTool, s.handleGetStatistics)

	revisionTool := mcp.NewTool(
		"add_revision",
		mcp.WithDescription("Record a correction to an extracted field value"),
		mcp.WithString("file_hash",
			mcp.Required(),
			mcp.Description("Document hash the field belongs to"),
		),
		mcp.WithString("field_name",
			mcp.Required(),
			mcp.Description("Field being corrected"),
		),
		mcp.WithString("new_value",
			mcp.Required(),
			mcp.Description("Corrected value"),
		),
		mcp.WithNumber("new_confidence",
			mcp.Required(),
			mcp.Description("Confidence in the corrected value, 0.0 to 1.0"),
		),
		mcp.WithString("old_value",
			mcp.Description("Value being replaced"),
		),
		mcp.WithNumber("old_confidence",
			mcp.Description("Confidence of the value being replaced"),
		),
		mcp.WithString("changed_by",
			mcp.Description("Who made the change: 'user' (default) or 'system'"),
		),
		mcp.WithString("reason",
			mcp.Description("Why the value was changed"),
		),
	)
	s.mcpServer.AddTool(revisionTool, s.handleAddRevision)

	explainTool := mcp.NewTool(
		"explain_confidence",
		mcp.WithDescription("Break a field's confidence score into its weighted factors"),
		mcp.WithString("field_type",
			mcp.Required(),
			mcp.Description("Field type, e.g. amount or ssn"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Extracted value to score"),
		),
		mcp.WithString("context",
			mcp.Description("Surrounding document text the value was found in"),
		),
	)
	s.mcpServer.AddTool(explainTool, s.handleExplainConfidence)
}

// Handler functions
func (s *Server) handleProcessPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	normalized, err := s.validator.Normalize(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.validator.ValidatePDFPath(normalized); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessionID := ""
	if sid, ok := request.GetArguments()["session_id"].(string); ok {
		sessionID = sid
	}

	result, err := s.processor.Process(normalized, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractionResult(result)), nil
}

func (s *Server) handleSearchHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filters := history.SearchFilters{}
	if v, ok := args["user_id"].(string); ok {
		filters.UserID = v
	}
	if v, ok := args["file_hash"].(string); ok {
		filters.FileHash = v
	}
	if v, ok := args["action"].(string); ok && v != "" {
		filters.Actions = []string{v}
	}
	if v, ok := args["search_text"].(string); ok {
		filters.SearchText = v
	}
	if v, ok := args["limit"].(float64); ok {
		filters.Limit = int(v)
	}

	entries, err := s.store.SearchHistory(filters)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatHistoryEntries(entries)), nil
}

func (s *Server) handleGetFieldHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileHash, err := request.RequireString("file_hash")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldName, err := request.RequireString("field_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fh, err := s.store.GetFieldHistory(fileHash, fieldName)
	if errors.Is(err, history.ErrFieldNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no extraction recorded for field %q on this document", fieldName)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatFieldHistory(fh)), nil
}

func (s *Server) handleGetFileSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileHash, err := request.RequireString("file_hash")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.store.GetFileSummary(fileHash)
	if errors.Is(err, history.ErrFileNotFound) {
		return mcp.NewToolResultError("no history recorded for this document hash"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatFileSummary(summary)), nil
}

func (s *Server) handleGetStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hours := 0
	if v, ok := request.GetArguments()["hours"].(float64); ok {
		hours = int(v)
	}

	stats, err := s.store.GetStatistics(hours)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatStatistics(stats, hours)), nil
}

func (s *Server) handleAddRevision(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileHash, err := request.RequireString("file_hash")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldName, err := request.RequireString("field_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newValue, err := request.RequireString("new_value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	newConfidence, ok := args["new_confidence"].(float64)
	if !ok {
		return mcp.NewToolResultError("new_confidence is required and must be a number"), nil
	}

	input := history.RevisionInput{
		FileHash:      fileHash,
		FieldName:     fieldName,
		NewValue:      newValue,
		NewConfidence: newConfidence,
		ChangedBy:     history.ChangedByUser,
	}
	if v, ok := args["old_value"].(string); ok {
		input.OldValue = &v
	}
	if v, ok := args["old_confidence"].(float64); ok {
		input.OldConfidence = &v
	}
	if v, ok := args["changed_by"].(string); ok && v != "" {
		input.ChangedBy = v
	}
	if v, ok := args["reason"].(string); ok {
		input.Reason = v
	}

	revisionID, err := s.store.AddRevision(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Recorded revision %s\n", revisionID)
	text += fmt.Sprintf("Field: %s\n", fieldName)
	text += fmt.Sprintf("New value: %s (confidence %.2f)\n", newValue, newConfidence)
	if input.OldValue != nil {
		text += fmt.Sprintf("Replaced: %s\n", *input.OldValue)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExplainConfidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fieldType, err := request.RequireString("field_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	contextText := ""
	if v, ok := request.GetArguments()["context"].(string); ok {
		contextText = v
	}

	factors := s.processor.ExplainConfidence(fieldType, value, contextText)

	var total float64
	text := fmt.Sprintf("Confidence breakdown for %s = %q\n\nFactors:\n", fieldType, value)
	for _, f := range factors {
		text += fmt.Sprintf("  %-16s %.2f (weight %.2f) %s\n", f.Name, f.Score, f.Weight, f.Description)
		total += f.Score
	}
	if total > 1.0 {
		total = 1.0
	}
	text += fmt.Sprintf("\nTotal: %.2f\n", total)
	return mcp.NewToolResultText(text), nil
}

// Formatting methods
func (s *Server) formatExtractionResult(result *extract.ExtractionResult) string {
	if result.Status == extract.StatusError {
		return fmt.Sprintf("Extraction failed for %s: %s", result.Filename, result.ErrorMessage)
	}

	text := fmt.Sprintf("Processed %s\n", result.Filename)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Fields found: %d\n", len(result.Fields))
	text += fmt.Sprintf("Overall confidence: %.2f\n", result.Confidence)
	text += fmt.Sprintf("Processing time: %s\n", result.ProcessingTime.Round(time.Millisecond))

	if len(result.Fields) > 0 {
		text += "\nFields:\n"
		for i, f := range result.Fields {
			text += fmt.Sprintf("%d. %s: %s\n", i+1, f.Name, f.Value)
			text += fmt.Sprintf("   Confidence: %.2f, Page: %d, Method: %s\n", f.Confidence, f.Page, f.Method)
		}
	}

	return text
}

func (s *Server) formatHistoryEntries(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No history entries matched the search"
	}

	text := fmt.Sprintf("Found %d history entr(ies)\n\n", len(entries))
	for i, e := range entries {
		text += fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(e.Severity), e.DisplayMessage)
		text += fmt.Sprintf("   Time: %s, Action: %s, File: %s\n",
			e.Timestamp.Format(time.RFC3339), e.Action, e.FileName)
		if e.FieldName != "" {
			text += fmt.Sprintf("   Field: %s\n", e.FieldName)
		}
		if i < len(entries)-1 {
			text += "\n"
		}
	}
	return text
}

func (s *Server) formatFieldHistory(fh *history.FieldHistory) string {
	text := fmt.Sprintf("Field: %s\n", fh.FieldName)
	text += fmt.Sprintf("Current value: %s (confidence %.2f)\n", fh.CurrentValue, fh.CurrentConfidence)
	text += fmt.Sprintf("Original value: %s (confidence %.2f)\n", fh.OriginalValue, fh.OriginalConfidence)
	text += fmt.Sprintf("Revisions: %d\n", fh.RevisionCount)
	text += fmt.Sprintf("Last modified: %s\n", fh.LastModified.Format(time.RFC3339))

	if len(fh.Revisions) > 0 {
		text += "\nRevision chain (oldest first):\n"
		for i, r := range fh.Revisions {
			oldValue := "(none)"
			if r.OldValue != nil {
				oldValue = *r.OldValue
			}
			text += fmt.Sprintf("%d. %s -> %s (confidence %.2f) by %s at %s\n",
				i+1, oldValue, r.NewValue, r.NewConfidence, r.ChangedBy, r.Timestamp.Format(time.RFC3339))
			if r.Reason != "" {
				text += fmt.Sprintf("   Reason: %s\n", r.Reason)
			}
		}
	}
	return text
}

func (s *Server) formatFileSummary(summary *history.FileSummary) string {
	text := "Document Summary\n"
	text += fmt.Sprintf("File: %s\n", summary.FileName)
	text += fmt.Sprintf("Hash: %s\n", summary.FileHash)
	text += fmt.Sprintf("First seen: %s\n", summary.UploadDate.Format(time.RFC3339))
	text += fmt.Sprintf("Last modified: %s\n", summary.LastModified.Format(time.RFC3339))
	text += fmt.Sprintf("Extractions: %d (%d succeeded, %d failed)\n",
		summary.TotalExtractions, summary.SuccessfulExtractions, summary.FailedExtractions)
	text += fmt.Sprintf("Average confidence: %.2f\n", summary.AverageConfidence)
	text += fmt.Sprintf("Revisions: %d\n", summary.RevisionCount)
	text += fmt.Sprintf("Exports: %d\n", summary.ExportCount)

	if len(summary.FieldsExtracted) > 0 {
		text += fmt.Sprintf("Fields: %s\n", strings.Join(summary.FieldsExtracted, ", "))
	}
	return text
}

func (s *Server) formatStatistics(stats *history.Statistics, hours int) string {
	text := "Extraction Statistics"
	if hours > 0 {
		text += fmt.Sprintf(" (last %d hours)", hours)
	}
	text += "\n"
	text += fmt.Sprintf("Total operations: %d (%d succeeded, %d failed, %.1f%% success)\n",
		stats.TotalOperations, stats.SuccessfulOperations, stats.FailedOperations, stats.SuccessRate*100)
	text += fmt.Sprintf("Activity: %d last hour, %d last 24h, %d last 7d\n",
		stats.OperationsLastHour, stats.OperationsLast24h, stats.OperationsLast7d)
	text += fmt.Sprintf("Unique documents: %d\n", stats.UniqueFilesProcessed)
	text += fmt.Sprintf("Total extractions: %d\n", stats.TotalExtractions)
	text += fmt.Sprintf("Average confidence: %.2f\n", stats.AverageConfidence)
	text += fmt.Sprintf("Active users: %d\n", stats.ActiveUsers)
	text += fmt.Sprintf("Average duration: %.1f ms, average memory: %.1f MB\n",
		stats.AverageDurationMS, stats.AverageMemoryMB)

	if len(stats.OperationsByType) > 0 {
		actions := make([]string, 0, len(stats.OperationsByType))
		for action := range stats.OperationsByType {
			actions = append(actions, action)
		}
		sort.Strings(actions)
		text += "\nBy action:\n"
		for _, action := range actions {
			text += fmt.Sprintf("  %s: %d\n", action, stats.OperationsByType[action])
		}
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting extraction server in stdio mode")
		log.Printf("Document directory: %s", s.config.PDFDirectory)
	}

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
