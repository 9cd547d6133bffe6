package review

import (
	"math"
	"strings"
)

// Metrics summarises the size and shape of a source file.
type Metrics struct {
	TotalLines   int `json:"total_lines"`
	CodeLines    int `json:"code_lines"`
	CommentLines int `json:"comment_lines"`
	Complexity   int `json:"cyclomatic_complexity"`
	// CommentRatio is the percentage of non-empty lines that are comments, one decimal.
	CommentRatio float64 `json:"comment_ratio"`
}

// Measure computes line counts and decision points for text. Comment detection uses the
// same masking as the rules, so markers inside strings are not counted.
func Measure(text string, lang Language) Metrics {
	lines := mask(text, lang)

	m := Metrics{
		TotalLines: len(lines),
		Complexity: decisionPoints(lines),
	}

	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			continue
		}
		m.CodeLines++
		if ln.comment && strings.TrimSpace(ln.code) == "" {
			m.CommentLines++
		}
	}

	if m.CodeLines > 0 {
		m.CommentRatio = math.Round(float64(m.CommentLines)/float64(m.CodeLines)*1000) / 10
	}

	return m
}
