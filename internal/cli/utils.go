// Package cli renders API results for the tanya command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tanya/internal/eval"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat accepts "text" or "json".
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAsk writes a single-turn answer.
func WriteAsk(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n\n", resp.Answer)
	writeCitations(w, resp.Citations)
	writeRetrieval(w, resp.Retrieval)
	return nil
}

// WriteChat writes one agent reply.
func WriteChat(w io.Writer, reply *models.ChatReply, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, reply)
	}
	label := "Answer"
	if reply.UsedClarification {
		label = "Clarification"
	}
	fmt.Fprintf(w, "\n[%s | confidence %.2f | session %s]\n%s\n\n", label, reply.ConfidenceScore, reply.SessionID, reply.Reply)
	writeCitations(w, reply.Citations)
	writeRetrieval(w, reply.Retrieval)
	return nil
}

func writeCitations(w io.Writer, citations []models.Citation) {
	if len(citations) == 0 {
		return
	}
	fmt.Fprintln(w, "Sources:")
	for i, c := range citations {
		fmt.Fprintf(w, "  [%d] %s (%.4f) %s\n", i+1, c.Doc, c.Score, utils.Truncate(c.Snippet, 80))
	}
}

func writeRetrieval(w io.Writer, r *models.RetrievalSummary) {
	if r == nil {
		return
	}
	if r.GroundingScore != nil {
		fmt.Fprintf(w, "k=%d latency=%dms grounding=%.3f\n", r.K, r.LatencyMs, *r.GroundingScore)
		return
	}
	fmt.Fprintf(w, "k=%d latency=%dms\n", r.K, r.LatencyMs)
}

// WriteHistory writes a session's turns, oldest first.
func WriteHistory(w io.Writer, resp *models.HistoryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.History) == 0 {
		fmt.Fprintf(w, "No history for session %s\n", resp.SessionID)
		return nil
	}
	fmt.Fprintf(w, "Session %s (%d turns)\n", resp.SessionID, len(resp.History))
	for _, t := range resp.History {
		fmt.Fprintf(w, "%s  %-9s %s\n", t.Timestamp.Format("2006-01-02 15:04:05"), t.Role, t.Text)
	}
	return nil
}

// WriteStatus writes the index status.
func WriteStatus(w io.Writer, st *models.IndexStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "Ready:        %v\n", st.Ready)
	fmt.Fprintf(w, "Documents:    %d\n", st.DocumentsIndexed)
	fmt.Fprintf(w, "Chunks:       %d\n", st.ChunksIndexed)
	fmt.Fprintf(w, "Chunking:     %d words, %d overlap\n", st.ChunkSize, st.ChunkOverlap)
	fmt.Fprintf(w, "Embeddings:   %s (%d dims)\n", st.EmbeddingModel, st.Dimensions)
	if !st.BuiltAt.IsZero() {
		fmt.Fprintf(w, "Built at:     %s\n", st.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	}
	if len(st.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped:      %s\n", strings.Join(st.Skipped, ", "))
	}
	return nil
}

// WriteEvalReport writes per-case results followed by the summary line.
func WriteEvalReport(w io.Writer, r *eval.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nEVALUATION RESULTS\n%s\n", rule, rule)
	for i, c := range r.Cases {
		status := "MISS"
		if c.Hit {
			status = "HIT"
		}
		fmt.Fprintf(w, "\n[%d] Query: %s\n    Expected: '%s'\n    Matches: %d/%d\n    Status: %s\n",
			i+1, c.Query, c.Expected, c.Matches, r.K, status)
		if !c.Hit {
			fmt.Fprintln(w, "    Retrieved snippets:")
			for j, cite := range c.Citations {
				fmt.Fprintf(w, "      [%d] %s: %s\n", j+1, cite.Doc, utils.Truncate(cite.Snippet, 60))
			}
		}
	}
	fmt.Fprintf(w, "\n%s\nSUMMARY: n=%d | hit_rate=%.2f | precision@%d=%.2f\n%s\n",
		rule, r.N, r.HitRate, r.K, r.PrecisionAtK, rule)
	return nil
}
