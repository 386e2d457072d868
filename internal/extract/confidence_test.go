package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer() *Scorer {
	return NewScorer(DefaultRegistry())
}

func TestScoreBounds(t *testing.T) {
	scorer := newTestScorer()

	cases := []struct {
		fieldType string
		value     string
		context   string
	}{
		{FieldCheckNumber, "12345", "Check #12345"},
		{FieldAmount, "1,234.56", "Amount: $1,234.56"},
		{FieldAmount, "7", ""},
		{FieldSSN, "123-45-6789", ""},
		{FieldDate, "1/1/99", "some unrelated text 1/1/99 more text"},
		{FieldEmail, "not-an-email", ""},
		{"unknown_type", "whatever", "whatever"},
	}

	for _, c := range cases {
		got := scorer.Score(c.fieldType, c.value, c.context)
		assert.GreaterOrEqual(t, got, 0.0, "%s %q", c.fieldType, c.value)
		assert.LessOrEqual(t, got, 1.0, "%s %q", c.fieldType, c.value)
	}
}

func TestScoreKeywordProximity(t *testing.T) {
	scorer := newTestScorer()

	near := scorer.Score(FieldAmount, "1,234.56", "Amount: $1,234.56")
	far := scorer.Score(FieldAmount, "1,234.56",
		"xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx\n1,234.56\nxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
	assert.Greater(t, near, far, "keyword adjacency must raise the score")
}

func TestScoreClarity(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		fieldType string
		strong    string
		weak      string
	}{
		{FieldCheckNumber, "12345", "12"},
		{FieldAmount, "1,234.56", "1234"},
		{FieldSSN, "123-45-6789", "123456789"},
		{FieldRoutingNumber, "021000021", "0210"},
		{FieldDate, "12/31/2023", "December 31"},
		{FieldPhone, "(555) 123-4567", "12345"},
		{FieldEmail, "a@b.com", "a@b"},
	}

	for _, tt := range tests {
		strong := scorer.Score(tt.fieldType, tt.strong, "")
		weak := scorer.Score(tt.fieldType, tt.weak, "")
		assert.Greater(t, strong, weak, "%s: %q should outscore %q", tt.fieldType, tt.strong, tt.weak)
	}
}

func TestScoreTableAccuracyScaling(t *testing.T) {
	scorer := newTestScorer()

	base := scorer.Score(FieldSSN, "123-45-6789", "")
	full := scorer.ScoreTable(FieldSSN, "123-45-6789", 1.0)
	half := scorer.ScoreTable(FieldSSN, "123-45-6789", 0.5)
	zero := scorer.ScoreTable(FieldSSN, "123-45-6789", 0.0)

	assert.Equal(t, base, full, "full accuracy must not penalize")
	assert.InDelta(t, base*0.9, half, 0.011)
	assert.InDelta(t, base*0.8, zero, 0.011)
	assert.Greater(t, full, half)
	assert.Greater(t, half, zero)

	// Out-of-range accuracy clamps instead of corrupting the score.
	assert.Equal(t, full, scorer.ScoreTable(FieldSSN, "123-45-6789", 3.0))
	assert.Equal(t, zero, scorer.ScoreTable(FieldSSN, "123-45-6789", -1.0))
}

func TestScoreRounding(t *testing.T) {
	scorer := newTestScorer()
	got := scorer.Score(FieldAmount, "1,234.56", "Amount: $1,234.56")
	assert.Equal(t, got, round2(got), "scores are rounded to two decimals")
}

func TestExplainMatchesScore(t *testing.T) {
	scorer := newTestScorer()

	factors := scorer.Explain(FieldCheckNumber, "12345", "Check #12345")
	require.Len(t, factors, 4)

	var total float64
	for _, f := range factors {
		assert.GreaterOrEqual(t, f.Score, 0.0)
		assert.LessOrEqual(t, f.Score, f.Weight)
		total += f.Score
	}
	if total > 1.0 {
		total = 1.0
	}
	assert.Equal(t, scorer.Score(FieldCheckNumber, "12345", "Check #12345"), round2(total))
}

func TestSuggestions(t *testing.T) {
	scorer := newTestScorer()

	assert.Empty(t, scorer.Suggestions(FieldCheckNumber, "12345", "Check #12345"))
	assert.NotEmpty(t, scorer.Suggestions(FieldEmail, "a@b", "a@b in passing"))
}
