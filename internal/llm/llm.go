// Package llm talks to the language model that composes replies and judges ambiguity.
package llm

import "context"

// Verdict is the outcome of an ambiguity check.
type Verdict int

const (
	// VerdictUnknown means the model gave no usable answer. Callers treat it as clear.
	VerdictUnknown Verdict = iota
	// VerdictAmbiguous means the message cannot be answered without more detail.
	VerdictAmbiguous
	// VerdictClear means the message can go to retrieval as is.
	VerdictClear
)

func (v Verdict) String() string {
	switch v {
	case VerdictAmbiguous:
		return "ambiguous"
	case VerdictClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Judgment is the model's view on whether a message needs clarification.
// Question is the clarifying question to ask, when the model supplied one.
type Judgment struct {
	Verdict    Verdict
	Question   string
	Reason     string
	Confidence float64
}

// LanguageModel is the text generation service.
type LanguageModel interface {
	// Complete answers prompt using only grounding as source material.
	Complete(ctx context.Context, prompt string, grounding []string) (string, error)
	// JudgeAmbiguous decides whether message, read with the recent conversation
	// turns in history, is too under-specified to answer by retrieval.
	JudgeAmbiguous(ctx context.Context, message string, history []string) (Judgment, error)
	// Name identifies the provider and model for logs.
	Name() string
}
