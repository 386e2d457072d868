package extract

import "time"

// Extraction method provenance tags.
const (
	MethodText  = "text"
	MethodTable = "table"
	MethodOCR   = "ocr" // reserved, no OCR backend is wired
)

// Result lifecycle states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// BoundingBox locates an extracted value on a page. Coordinates follow the
// PDF convention (origin bottom-left, points).
type BoundingBox struct {
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// ExtractedField is a single candidate or finalized field value. The value
// is kept as the exact extracted text so the audit trail preserves what was
// actually read from the document.
type ExtractedField struct {
	Name       string       `json:"name"`
	Value      string       `json:"value"`
	Confidence float64      `json:"confidence"`
	Page       int          `json:"page"`
	Method     string       `json:"method"`
	Location   *BoundingBox `json:"location,omitempty"`
}

// ExtractionResult is the outcome of one processing run over one document.
type ExtractionResult struct {
	Fields         []ExtractedField `json:"fields"`
	Confidence     float64          `json:"confidence"`
	PageCount      int              `json:"page_count"`
	ProcessingTime time.Duration    `json:"processing_time"`
	Filename       string           `json:"filename"`
	Status         string           `json:"status"`
	ErrorMessage   string           `json:"error_message,omitempty"`
}

// TextContent is the output of one text extraction strategy: per-page text
// plus the page count the strategy could determine.
type TextContent struct {
	Pages     []string
	PageCount int
}

// Text reports the concatenated text of all pages.
func (tc *TextContent) Text() string {
	var total int
	for _, p := range tc.Pages {
		total += len(p) + 1
	}
	buf := make([]byte, 0, total)
	for _, p := range tc.Pages {
		buf = append(buf, p...)
		buf = append(buf, '\n')
	}
	return string(buf)
}

// Empty reports whether the strategy produced neither text nor pages.
func (tc *TextContent) Empty() bool {
	if tc == nil {
		return true
	}
	for _, p := range tc.Pages {
		if p != "" {
			return false
		}
	}
	return true
}

// TableRecord is one detected table: the page it was found on, a detection
// accuracy in [0,1] and its rows as column-name to cell-text mappings.
type TableRecord struct {
	Page     int                 `json:"page"`
	Accuracy float64             `json:"accuracy"`
	Rows     []map[string]string `json:"rows"`
}
