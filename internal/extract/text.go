package extract

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// TextStrategy extracts per-page plain text from a PDF file. A strategy
// returns an error only when the document cannot be opened at all; per-page
// failures degrade to empty page text.
type TextStrategy interface {
	Name() string
	Extract(path string) (*TextContent, error)
}

// TextGateway runs the primary text strategy and falls back to the
// secondary one when the primary yields no usable pages. Strategy failures
// never propagate; the worst outcome is an empty TextContent.
type TextGateway struct {
	primary  TextStrategy
	fallback TextStrategy
	logger   *zap.Logger
}

// NewTextGateway creates a gateway with the default strategy pair:
// ledongthuc/pdf plain text extraction first, pdfcpu content-stream
// scanning second.
func NewTextGateway(logger *zap.Logger) *TextGateway {
	return &TextGateway{
		primary:  &plainTextStrategy{},
		fallback: &contentStreamStrategy{},
		logger:   logger,
	}
}

// NewTextGatewayWithStrategies creates a gateway over explicit strategies.
func NewTextGatewayWithStrategies(primary, fallback TextStrategy, logger *zap.Logger) *TextGateway {
	return &TextGateway{primary: primary, fallback: fallback, logger: logger}
}

// Extract returns the per-page text for the document. The result is never
// nil; callers decide what an empty result means.
func (g *TextGateway) Extract(path string) *TextContent {
	primary := g.run(g.primary, path)
	if !primary.Empty() {
		return primary
	}

	g.logger.Info("primary text strategy yielded no text, trying fallback",
		zap.String("primary", g.primary.Name()),
		zap.String("fallback", g.fallback.Name()),
		zap.String("path", path))

	fallback := g.run(g.fallback, path)
	if !fallback.Empty() {
		return fallback
	}

	// Neither strategy found text. Keep whichever knows the page count so
	// the orchestrator can distinguish "scanned pages" from "unreadable".
	if primary.PageCount > 0 {
		return primary
	}
	return fallback
}

func (g *TextGateway) run(strategy TextStrategy, path string) *TextContent {
	tc, err := strategy.Extract(path)
	if err != nil {
		g.logger.Warn("text strategy failed",
			zap.String("strategy", strategy.Name()),
			zap.String("path", path),
			zap.Error(err))
		return &TextContent{}
	}
	if tc == nil {
		return &TextContent{}
	}
	return tc
}

// plainTextStrategy extracts text with ledongthuc/pdf's GetPlainText.
type plainTextStrategy struct{}

func (s *plainTextStrategy) Name() string { return "ledongthuc-plaintext" }

func (s *plainTextStrategy) Extract(path string) (tc *TextContent, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			tc, err = nil, fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	tc = &TextContent{PageCount: reader.NumPage()}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			tc.Pages = append(tc.Pages, "")
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails.
			tc.Pages = append(tc.Pages, "")
			continue
		}
		tc.Pages = append(tc.Pages, content)
	}
	return tc, nil
}

// contentStreamStrategy recovers text by reading the document with pdfcpu
// under relaxed validation and scanning each page's decoded content stream
// for text-show operators. It handles documents ledongthuc/pdf cannot open
// and, like its counterpart, reports page counts even when no text is
// recoverable.
type contentStreamStrategy struct{}

func (s *contentStreamStrategy) Name() string { return "pdfcpu-contentstream" }

func (s *contentStreamStrategy) Extract(path string) (*TextContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	tc := &TextContent{PageCount: ctx.PageCount}
	for pageNum := 1; pageNum <= ctx.PageCount; pageNum++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNum)
		if err != nil || r == nil {
			tc.Pages = append(tc.Pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			tc.Pages = append(tc.Pages, "")
			continue
		}
		tc.Pages = append(tc.Pages, textFromContentStream(data))
	}
	return tc, nil
}

var (
	showTextRe  = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|')`)
	showArrayRe = regexp.MustCompile(`\[((?:\\.|[^\]\\])*)\]\s*TJ`)
	literalRe   = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
	octalRe     = regexp.MustCompile(`\\([0-7]{1,3})`)
)

// textFromContentStream pulls string operands of Tj/'/TJ operators out of a
// decoded content stream. Positioning operators are ignored, so the result
// is reading-order-ish text good enough for pattern matching, not layout.
func textFromContentStream(data []byte) string {
	stream := string(data)
	var lines []string

	for _, m := range showTextRe.FindAllStringSubmatch(stream, -1) {
		if text := unescapePDFString(m[1]); strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
	}
	for _, m := range showArrayRe.FindAllStringSubmatch(stream, -1) {
		var parts []string
		for _, lit := range literalRe.FindAllStringSubmatch(m[1], -1) {
			parts = append(parts, unescapePDFString(lit[1]))
		}
		if text := strings.Join(parts, ""); strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// unescapePDFString resolves PDF literal string escapes (\(, \), \\, \n,
// \t, \r and octal codes).
func unescapePDFString(s string) string {
	s = octalRe.ReplaceAllStringFunc(s, func(esc string) string {
		code, err := strconv.ParseInt(esc[1:], 8, 32)
		if err != nil {
			return esc
		}
		return string(rune(code))
	})
	replacer := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
		`\n`, "\n",
		`\t`, "\t",
		`\r`, "\r",
	)
	return replacer.Replace(s)
}
