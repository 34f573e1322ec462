// Package eval measures retrieval quality against a JSONL file of questions with
// expected answer fragments.
package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/tanya/internal/client"
	"github.com/hyperjump/tanya/internal/models"
	"go.uber.org/zap"
)

// Case is one line of an evaluation file.
type Case struct {
	Query       string `json:"q"`
	AnsContains string `json:"ans_contains"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Query     string            `json:"query"`
	Expected  string            `json:"expected"`
	Matches   int               `json:"matches"`
	Hit       bool              `json:"hit"`
	Citations []models.Citation `json:"citations"`
}

// Report summarizes a run.
type Report struct {
	N            int          `json:"n"`
	K            int          `json:"k"`
	Hits         int          `json:"hits"`
	HitRate      float64      `json:"hit_rate"`
	PrecisionAtK float64      `json:"precision_at_k"`
	Cases        []CaseResult `json:"cases"`
}

// Source returns the citations retrieved for a query.
type Source interface {
	Citations(ctx context.Context, query string, k int) ([]models.Citation, error)
}

// Retriever is satisfied by *search.Engine.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error)
}

type retrieverSource struct{ r Retriever }

// FromRetriever evaluates an in-process retrieval engine.
func FromRetriever(r Retriever) Source { return retrieverSource{r} }

func (s retrieverSource) Citations(ctx context.Context, query string, k int) ([]models.Citation, error) {
	res, err := s.r.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return res.Citations, nil
}

type clientSource struct{ c *client.Client }

// FromClient evaluates a running server through its /ask endpoint.
func FromClient(c *client.Client) Source { return clientSource{c} }

func (s clientSource) Citations(ctx context.Context, query string, k int) ([]models.Citation, error) {
	resp, err := s.c.Ask(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return resp.Citations, nil
}

// Load reads one Case per non-blank line of path.
func Load(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open eval file: %w", err)
	}
	defer f.Close()

	var cases []Case
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var c Case
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if strings.TrimSpace(c.Query) == "" || strings.TrimSpace(c.AnsContains) == "" {
			return nil, fmt.Errorf("%s:%d: q and ans_contains are required", path, line)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read eval file: %w", err)
	}
	return cases, nil
}

// Matches counts citations whose full text contains expected, ignoring case.
func Matches(citations []models.Citation, expected string) int {
	want := strings.ToLower(strings.TrimSpace(expected))
	n := 0
	for _, c := range citations {
		if strings.Contains(strings.ToLower(c.FullSnippet), want) {
			n++
		}
	}
	return n
}

// Run evaluates every case at depth k. A case is a hit when at least one citation
// matches; precision@k is the mean of matches/k over all cases. The first
// retrieval error stops the run.
func Run(ctx context.Context, src Source, cases []Case, k int, logger *zap.Logger) (*Report, error) {
	if k <= 0 {
		return nil, &models.ValidationError{Field: "k", Reason: fmt.Sprintf("must be positive, got %d", k)}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	report := &Report{N: len(cases), K: k, Cases: make([]CaseResult, 0, len(cases))}
	var precisionSum float64
	for i, c := range cases {
		citations, err := src.Citations(ctx, c.Query, k)
		if err != nil {
			return nil, fmt.Errorf("case %d (%q): %w", i+1, c.Query, err)
		}
		m := Matches(citations, c.AnsContains)
		res := CaseResult{Query: c.Query, Expected: c.AnsContains, Matches: m, Hit: m > 0, Citations: citations}
		if res.Hit {
			report.Hits++
			precisionSum += float64(m) / float64(k)
		}
		logger.Debug("eval case", zap.Int("case", i+1), zap.String("query", c.Query), zap.Int("matches", m))
		report.Cases = append(report.Cases, res)
	}
	if report.N > 0 {
		report.HitRate = float64(report.Hits) / float64(report.N)
		report.PrecisionAtK = precisionSum / float64(report.N)
	}
	return report, nil
}
