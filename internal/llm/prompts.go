package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a professional insurance claims assistant. Answer based ONLY on the information provided below. If the information is incomplete, say what you know and what is missing. Be clear and concise (2-4 sentences), mention policy numbers, and include relevant numbers, dates or amounts.`

const judgePrompt = `You are an insurance claims assistant. Decide whether the user's query is specific enough to be answered by searching the policy documents, or whether you must first ask a clarifying question.

%s
Current user query: %s

Criteria:
1. Is the query specific enough (policy number, claim reference, dates)?
2. Are there multiple possible interpretations?
3. Does the conversation so far supply the missing details?

Reply with JSON only:
{"needs_clarification": true or false, "reason": "brief explanation", "clarification_question": "question to ask the user, empty if not needed", "confidence": 0.0-1.0}`

// FormatHistory renders conversation turns, oldest first, for a prompt.
func FormatHistory(turns []string) string {
	if len(turns) == 0 {
		return "This is the start of the conversation.\n"
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, t := range turns {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return b.String()
}

// AnswerPrompt asks for an answer to message that draws on the recent turns for context.
func AnswerPrompt(message string, history []string) string {
	return fmt.Sprintf("%s\nCurrent user query: %s\n\nStart with a direct answer, then give supporting details.", FormatHistory(history), message)
}

// ClarifyPrompt asks for a single clarifying question about message.
func ClarifyPrompt(message string, history []string) string {
	return fmt.Sprintf("%s\nCurrent user query: %s\n\nThe query is missing details needed to answer it. Ask the user one short, specific clarifying question (for example which policy number or claim reference they mean). Reply with the question only.", FormatHistory(history), message)
}

// JudgePrompt builds the ambiguity check prompt.
func JudgePrompt(message string, history []string) string {
	return fmt.Sprintf(judgePrompt, FormatHistory(history), message)
}

func groundingMessage(grounding []string) string {
	if len(grounding) == 0 {
		return systemPrompt + "\n\nAvailable information: none."
	}
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nAvailable information:\n")
	for i, c := range grounding {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	return b.String()
}
