package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Accuracy assigned to tables recovered by the plain-text grid fallback,
// reflecting the reduced confidence in that path.
const gridFallbackAccuracy = 0.7

// TableStrategy detects tabular regions in a PDF file.
type TableStrategy interface {
	Name() string
	Extract(path string) ([]TableRecord, error)
}

// TableGateway runs a chain of table detection strategies: bordered
// (tight positional clustering) first, borderless (loose clustering) when
// the bordered pass finds nothing, and a plain-text grid scan when the
// positional strategies fail outright. Persistent failure yields an empty
// table list, never an error.
type TableGateway struct {
	bordered   TableStrategy
	borderless TableStrategy
	grid       TableStrategy
	logger     *zap.Logger
}

// NewTableGateway creates a gateway with the default strategy chain.
func NewTableGateway(logger *zap.Logger) *TableGateway {
	return &TableGateway{
		bordered:   &positionalTableStrategy{name: "positional-bordered", rowTolerance: 2.0, columnGap: 12.0},
		borderless: &positionalTableStrategy{name: "positional-borderless", rowTolerance: 5.0, columnGap: 20.0, accuracyScale: 0.9},
		grid:       &plainTextGridStrategy{},
		logger:     logger,
	}
}

// NewTableGatewayWithStrategies creates a gateway over explicit strategies.
func NewTableGatewayWithStrategies(bordered, borderless, grid TableStrategy, logger *zap.Logger) *TableGateway {
	return &TableGateway{bordered: bordered, borderless: borderless, grid: grid, logger: logger}
}

// Extract returns all tables detected in the document, best effort.
func (g *TableGateway) Extract(path string) []TableRecord {
	tables, err := g.bordered.Extract(path)
	if err != nil {
		g.logger.Warn("bordered table strategy failed, using grid fallback",
			zap.String("path", path), zap.Error(err))
		return g.gridFallback(path)
	}
	if len(tables) > 0 {
		return tables
	}

	tables, err = g.borderless.Extract(path)
	if err != nil {
		g.logger.Warn("borderless table strategy failed, using grid fallback",
			zap.String("path", path), zap.Error(err))
		return g.gridFallback(path)
	}
	return tables
}

func (g *TableGateway) gridFallback(path string) []TableRecord {
	tables, err := g.grid.Extract(path)
	if err != nil {
		g.logger.Warn("grid fallback table strategy failed",
			zap.String("path", path), zap.Error(err))
		return nil
	}
	for i := range tables {
		tables[i].Accuracy = gridFallbackAccuracy
	}
	return tables
}

// positionalTableStrategy clusters positioned text elements into rows by Y
// coordinate and into cells by X gaps. Tight tolerances approximate
// bordered-table detection; loose tolerances approximate borderless
// detection of whitespace-aligned columns.
type positionalTableStrategy struct {
	name          string
	rowTolerance  float64
	columnGap     float64
	accuracyScale float64
}

func (s *positionalTableStrategy) Name() string { return s.name }

func (s *positionalTableStrategy) Extract(path string) (tables []TableRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows := s.clusterRows(page.Content().Text)
		tables = append(tables, s.tablesFromRows(rows, pageNum)...)
	}
	return tables, nil
}

type positionedCell struct {
	x    float64
	text string
}

// clusterRows groups text elements sharing a baseline (within rowTolerance)
// and merges adjacent elements into cells split on columnGap-sized X gaps.
func (s *positionalTableStrategy) clusterRows(elements []pdf.Text) [][]positionedCell {
	if len(elements) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // PDF origin is bottom-left
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]pdf.Text
	current := []pdf.Text{sorted[0]}
	for _, el := range sorted[1:] {
		if current[len(current)-1].Y-el.Y > s.rowTolerance {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, el)
	}
	rows = append(rows, current)

	out := make([][]positionedCell, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		var cells []positionedCell
		var sb strings.Builder
		startX := row[0].X
		lastEnd := row[0].X
		for _, el := range row {
			if el.X-lastEnd > s.columnGap && sb.Len() > 0 {
				cells = append(cells, positionedCell{x: startX, text: strings.TrimSpace(sb.String())})
				sb.Reset()
				startX = el.X
			}
			sb.WriteString(el.S)
			lastEnd = el.X + el.W
		}
		if sb.Len() > 0 {
			cells = append(cells, positionedCell{x: startX, text: strings.TrimSpace(sb.String())})
		}
		out = append(out, cells)
	}
	return out
}

// tablesFromRows finds consecutive runs of rows with a stable column count
// (>=2 columns, >=2 rows) and converts each run into a TableRecord.
func (s *positionalTableStrategy) tablesFromRows(rows [][]positionedCell, pageNum int) []TableRecord {
	var tables []TableRecord
	var run [][]positionedCell

	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, s.buildTable(run, pageNum))
		}
		run = nil
	}

	for _, row := range rows {
		if len(row) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(row) != len(run[0]) {
			flush()
		}
		run = append(run, row)
	}
	flush()
	return tables
}

func (s *positionalTableStrategy) buildTable(run [][]positionedCell, pageNum int) TableRecord {
	headers := columnNames(cellTexts(run[0]))

	var rows []map[string]string
	filled, total := 0, 0
	for _, row := range run[1:] {
		m := make(map[string]string, len(headers))
		for i, cell := range row {
			if i >= len(headers) {
				break
			}
			m[headers[i]] = cell.text
			total++
			if cell.text != "" {
				filled++
			}
		}
		rows = append(rows, m)
	}

	accuracy := 1.0
	if total > 0 {
		accuracy = float64(filled) / float64(total)
	}
	if s.accuracyScale > 0 {
		accuracy *= s.accuracyScale
	}
	return TableRecord{Page: pageNum, Accuracy: accuracy, Rows: rows}
}

// plainTextGridStrategy detects table-like grids in plain text: consecutive
// lines split into the same number of columns by runs of two or more
// spaces. It shares the text gateway's primary library so it works whenever
// any text at all is extractable.
type plainTextGridStrategy struct{}

var columnSplitRe = regexp.MustCompile(`\s{2,}`)

func (s *plainTextGridStrategy) Name() string { return "plaintext-grid" }

func (s *plainTextGridStrategy) Extract(path string) (tables []TableRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		tables = append(tables, gridTablesFromText(text, pageNum)...)
	}
	return tables, nil
}

// gridTablesFromText is exported to the strategy only; split out so the
// line-grid detection is testable without a PDF fixture.
func gridTablesFromText(text string, pageNum int) []TableRecord {
	var tables []TableRecord
	var run [][]string

	flush := func() {
		if len(run) >= 2 {
			headers := columnNames(run[0])
			var rows []map[string]string
			for _, cols := range run[1:] {
				m := make(map[string]string, len(headers))
				for i, col := range cols {
					if i >= len(headers) {
						break
					}
					m[headers[i]] = col
				}
				rows = append(rows, m)
			}
			tables = append(tables, TableRecord{Page: pageNum, Accuracy: gridFallbackAccuracy, Rows: rows})
		}
		run = nil
	}

	for _, line := range strings.Split(text, "\n") {
		cols := columnSplitRe.Split(strings.TrimSpace(line), -1)
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		if len(cols) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(cols) != len(run[0]) {
			flush()
		}
		run = append(run, cols)
	}
	flush()
	return tables
}

func cellTexts(cells []positionedCell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.text
	}
	return out
}

// columnNames derives unique column keys from a header row, substituting
// col_N for blank or duplicate headers.
func columnNames(header []string) []string {
	seen := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" || seen[name] {
			name = fmt.Sprintf("col_%d", i)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}
