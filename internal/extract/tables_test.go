package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTableStrategy struct {
	name   string
	tables []TableRecord
	err    error
	calls  int
}

func (s *stubTableStrategy) Name() string { return s.name }

func (s *stubTableStrategy) Extract(string) ([]TableRecord, error) {
	s.calls++
	return s.tables, s.err
}

func TestTableGatewayBorderedWins(t *testing.T) {
	bordered := &stubTableStrategy{name: "bordered", tables: []TableRecord{{Page: 1, Accuracy: 0.95}}}
	borderless := &stubTableStrategy{name: "borderless"}
	grid := &stubTableStrategy{name: "grid"}
	gw := NewTableGatewayWithStrategies(bordered, borderless, grid, zap.NewNop())

	got := gw.Extract("doc.pdf")
	require.Len(t, got, 1)
	assert.Equal(t, 0.95, got[0].Accuracy)
	assert.Equal(t, 0, borderless.calls)
	assert.Equal(t, 0, grid.calls)
}

func TestTableGatewayBorderlessWhenBorderedEmpty(t *testing.T) {
	bordered := &stubTableStrategy{name: "bordered"}
	borderless := &stubTableStrategy{name: "borderless", tables: []TableRecord{{Page: 2, Accuracy: 0.8}}}
	grid := &stubTableStrategy{name: "grid"}
	gw := NewTableGatewayWithStrategies(bordered, borderless, grid, zap.NewNop())

	got := gw.Extract("doc.pdf")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Page)
	assert.Equal(t, 0, grid.calls)
}

func TestTableGatewayGridOnBorderedError(t *testing.T) {
	bordered := &stubTableStrategy{name: "bordered", err: errors.New("parse failure")}
	borderless := &stubTableStrategy{name: "borderless", tables: []TableRecord{{Page: 1}}}
	grid := &stubTableStrategy{name: "grid", tables: []TableRecord{{Page: 1, Accuracy: 0.99}}}
	gw := NewTableGatewayWithStrategies(bordered, borderless, grid, zap.NewNop())

	got := gw.Extract("doc.pdf")
	require.Len(t, got, 1)
	assert.Equal(t, 0, borderless.calls, "errors skip straight to the grid fallback")
	assert.Equal(t, gridFallbackAccuracy, got[0].Accuracy, "grid results carry the fixed fallback accuracy")
}

func TestTableGatewayEmptyWhenAllFail(t *testing.T) {
	bordered := &stubTableStrategy{name: "bordered", err: errors.New("bad")}
	borderless := &stubTableStrategy{name: "borderless"}
	grid := &stubTableStrategy{name: "grid", err: errors.New("also bad")}
	gw := NewTableGatewayWithStrategies(bordered, borderless, grid, zap.NewNop())

	assert.Empty(t, gw.Extract("doc.pdf"))
}

func TestTableGatewayBorderlessEmptyIsNotAFailure(t *testing.T) {
	bordered := &stubTableStrategy{name: "bordered"}
	borderless := &stubTableStrategy{name: "borderless"}
	grid := &stubTableStrategy{name: "grid", tables: []TableRecord{{Page: 1}}}
	gw := NewTableGatewayWithStrategies(bordered, borderless, grid, zap.NewNop())

	assert.Empty(t, gw.Extract("doc.pdf"))
	assert.Equal(t, 0, grid.calls, "a clean empty borderless pass ends the chain")
}

func TestGridTablesFromText(t *testing.T) {
	text := "Payee          Amount      Date\n" +
		"Jane Smith     1,234.56    12/31/2023\n" +
		"Acme Corp      987.65      01/15/2024\n" +
		"\n" +
		"closing paragraph with no columns"

	tables := gridTablesFromText(text, 3)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, 3, table.Page)
	assert.Equal(t, gridFallbackAccuracy, table.Accuracy)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1,234.56", table.Rows[0]["Amount"])
	assert.Equal(t, "12/31/2023", table.Rows[0]["Date"])
	assert.Equal(t, "Acme Corp", table.Rows[1]["Payee"])
}

func TestGridTablesFromTextColumnCountChange(t *testing.T) {
	text := "a  b\n" +
		"c  d\n" +
		"x  y  z\n" +
		"1  2  3\n" +
		"4  5  6"

	tables := gridTablesFromText(text, 1)
	require.Len(t, tables, 2)
	assert.Len(t, tables[0].Rows, 1)
	assert.Len(t, tables[1].Rows, 2)
}

func TestGridTablesFromTextNoTables(t *testing.T) {
	assert.Empty(t, gridTablesFromText("just a paragraph of prose\nanother line", 1))
	assert.Empty(t, gridTablesFromText("", 1))
	assert.Empty(t, gridTablesFromText("one  two", 1), "a lone aligned line is not a table")
}

func TestColumnNames(t *testing.T) {
	got := columnNames([]string{"Name", "", "Name", "Total"})
	assert.Equal(t, []string{"Name", "col_1", "col_2", "Total"}, got)
}
