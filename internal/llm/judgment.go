package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/tanya/pkg/utils"
)

type judgmentJSON struct {
	NeedsClarification    *bool    `json:"needs_clarification"`
	Reason                string   `json:"reason"`
	ClarificationQuestion string   `json:"clarification_question"`
	Confidence            *float64 `json:"confidence"`
}

// ParseJudgment reads the JSON judgment from a model reply. Text around the outermost
// braces is ignored. A reply without a needs_clarification field gives VerdictUnknown.
func ParseJudgment(text string) (Judgment, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Judgment{}, errors.New("judgment: no JSON object in reply")
	}
	var j judgmentJSON
	if err := json.Unmarshal([]byte(text[start:end+1]), &j); err != nil {
		return Judgment{}, fmt.Errorf("judgment: %w", err)
	}
	out := Judgment{
		Question:   strings.TrimSpace(j.ClarificationQuestion),
		Reason:     j.Reason,
		Confidence: 0.5,
	}
	if j.Confidence != nil {
		out.Confidence = utils.Clamp(*j.Confidence, 0, 1)
	}
	switch {
	case j.NeedsClarification == nil:
		out.Verdict = VerdictUnknown
	case *j.NeedsClarification:
		out.Verdict = VerdictAmbiguous
	default:
		out.Verdict = VerdictClear
	}
	return out, nil
}
