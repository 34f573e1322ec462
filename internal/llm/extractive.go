package llm

import (
	"context"
	"strings"
)

// NoAnswer is the extractive reply when retrieval found nothing to quote.
const NoAnswer = "I could not find anything about that in the documents."

// Extractive is an offline model: it answers with the grounding text itself and never
// flags a message as ambiguous.
type Extractive struct{}

// Complete joins grounding in order; the prompt is ignored.
func (Extractive) Complete(ctx context.Context, _ string, grounding []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(grounding) == 0 {
		return NoAnswer, nil
	}
	return strings.Join(grounding, " "), nil
}

// JudgeAmbiguous always returns VerdictUnknown.
func (Extractive) JudgeAmbiguous(ctx context.Context, _ string, _ []string) (Judgment, error) {
	return Judgment{Verdict: VerdictUnknown}, ctx.Err()
}

// Name returns "extractive".
func (Extractive) Name() string {
	return "extractive"
}
