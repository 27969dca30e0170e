// Package analyzer builds the source-specific LLM prompt and parses the
// model response against a fixed schema. One implementation per source type.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"postpilot/llm"
	"postpilot/models"
)

// Analyzer turns a record's raw data into a structured insight report.
// A response that fails to parse or misses a required section is an error;
// partial acceptance never happens.
type Analyzer interface {
	Analyze(ctx context.Context, a *models.Analysis) (*models.AnalysisResult, error)
}

// ForSource returns the analyzer for the record's source type.
func ForSource(sourceType models.SourceType, client llm.Client) (Analyzer, error) {
	switch sourceType {
	case models.SourceSocial:
		return &socialAnalyzer{client: client}, nil
	case models.SourceBlog:
		return &blogAnalyzer{client: client}, nil
	default:
		return nil, fmt.Errorf("no analyzer for source type %q", sourceType)
	}
}

// stripCodeFence removes a markdown code fence if the model ignored the
// raw-JSON instruction.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// truncate returns s truncated to max runes.
func truncate(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
