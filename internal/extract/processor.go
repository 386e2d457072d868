package extract

import (
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrMsgNoText is the error message set on results when neither text
// strategy could read anything from the document.
const ErrMsgNoText = "Unable to extract text from PDF"

// Recorder receives finalized extraction runs for audit/history purposes.
// Implementations must not swallow storage failures; a returned error
// propagates to the Process caller.
type Recorder interface {
	RecordRun(path, sessionID string, result *ExtractionResult) error
}

// Processor coordinates text extraction, table extraction, field matching,
// scoring and deduplication for a single document.
//
// A Processor runs extractions sequentially; callers must not run
// concurrent extractions for the same document or session.
type Processor struct {
	text     *TextGateway
	tables   *TableGateway
	matcher  *Matcher
	scorer   *Scorer
	recorder Recorder
	logger   *zap.Logger
}

// NewProcessor wires a processor from its collaborators. recorder may be
// nil, in which case runs are not written to history.
func NewProcessor(text *TextGateway, tables *TableGateway, matcher *Matcher, scorer *Scorer, recorder Recorder, logger *zap.Logger) *Processor {
	return &Processor{
		text:     text,
		tables:   tables,
		matcher:  matcher,
		scorer:   scorer,
		recorder: recorder,
		logger:   logger,
	}
}

// NewDefaultProcessor builds a processor with the default gateways,
// registry and scorer.
func NewDefaultProcessor(recorder Recorder, logger *zap.Logger) *Processor {
	registry := DefaultRegistry()
	scorer := NewScorer(registry)
	return NewProcessor(
		NewTextGateway(logger),
		NewTableGateway(logger),
		NewMatcher(registry, scorer),
		scorer,
		recorder,
		logger,
	)
}

// Process runs the full extraction pipeline over the file at path. The
// path must already be validated and local; sessionID groups the run's
// history events and may be empty.
//
// Processing failures are reported through the result's status and error
// message, never as a returned error. The returned error is reserved for
// history persistence failures, which must not be silent.
func (p *Processor) Process(path, sessionID string) (*ExtractionResult, error) {
	start := time.Now()
	result := &ExtractionResult{
		Filename: filepath.Base(path),
		Status:   StatusPending,
	}
	result.Status = StatusProcessing

	content := p.text.Extract(path)
	if content.Empty() && content.PageCount == 0 {
		result.Status = StatusError
		result.ErrorMessage = ErrMsgNoText
		result.ProcessingTime = time.Since(start)
		p.logger.Error("extraction failed", zap.String("path", path), zap.String("error", result.ErrorMessage))
		return result, p.record(path, sessionID, result)
	}
	result.PageCount = content.PageCount

	var fields []ExtractedField
	for i, pageText := range content.Pages {
		fields = append(fields, p.matcher.Match(pageText, i+1)...)
	}
	fields = append(fields, p.tableFields(path)...)
	result.Fields = DedupeFields(fields)

	if len(result.Fields) > 0 {
		var sum float64
		for _, f := range result.Fields {
			sum += f.Confidence
		}
		result.Confidence = sum / float64(len(result.Fields))
	}

	result.Status = StatusCompleted
	result.ProcessingTime = time.Since(start)

	p.logger.Info("extraction completed",
		zap.String("path", path),
		zap.Int("pages", result.PageCount),
		zap.Int("fields", len(result.Fields)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", result.ProcessingTime))

	return result, p.record(path, sessionID, result)
}

// ExplainConfidence breaks a field's score into its named factors.
func (p *Processor) ExplainConfidence(fieldType, value, context string) []Factor {
	return p.scorer.Explain(fieldType, value, context)
}

func (p *Processor) tableFields(path string) []ExtractedField {
	var fields []ExtractedField
	for _, table := range p.tables.Extract(path) {
		for _, row := range table.Rows {
			for _, cell := range row {
				fieldType, ok := p.matcher.MatchCell(cell)
				if !ok {
					continue
				}
				value := strings.TrimSpace(cell)
				fields = append(fields, ExtractedField{
					Name:       fieldType,
					Value:      value,
					Confidence: p.scorer.ScoreTable(fieldType, value, table.Accuracy),
					Page:       table.Page,
					Method:     MethodTable,
				})
			}
		}
	}
	return fields
}

func (p *Processor) record(path, sessionID string, result *ExtractionResult) error {
	if p.recorder == nil {
		return nil
	}
	return p.recorder.RecordRun(path, sessionID, result)
}
