// Package agent runs the conversational loop: decide whether a message needs a
// clarifying question, otherwise answer it from retrieved documents, and record
// both sides of the exchange in the session history.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/llm"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/pii"
	"github.com/hyperjump/tanya/internal/search"
	"github.com/hyperjump/tanya/internal/session"
	"github.com/hyperjump/tanya/pkg/utils"
	"go.uber.org/zap"
)

// Retriever finds the chunks closest to a query (see search.Engine).
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error)
}

// Agent answers chat messages. It holds no per-session state of its own; all
// history lives in the session store.
type Agent struct {
	retriever  Retriever
	model      llm.LanguageModel
	store      session.Store
	masker     pii.Masker
	dialogue   config.DialogueConfig
	confidence config.ConfidenceTable
	defaultK   int
	maxK       int
	llmTimeout time.Duration
	logger     *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger for dialogue decisions.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = utils.OrNop(l) }
}

// WithMasker replaces the PII masker built from the config.
func WithMasker(m pii.Masker) Option {
	return func(a *Agent) { a.masker = m }
}

// New creates an agent. A zero llm timeout means no per-call deadline.
func New(retriever Retriever, model llm.LanguageModel, store session.Store, cfg *config.Config, opts ...Option) *Agent {
	a := &Agent{
		retriever:  retriever,
		model:      model,
		store:      store,
		masker:     pii.New(&cfg.PII),
		dialogue:   cfg.Dialogue,
		confidence: cfg.Dialogue.Confidence.Table(),
		defaultK:   cfg.Retrieval.DefaultK,
		maxK:       cfg.Retrieval.MaxKOrDefault(),
		llmTimeout: cfg.LLM.Timeout(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Chat handles one user message.
//
// The message is masked, and it and k are checked before any collaborator is called.
// Then the recent history is loaded and the model judges whether the message is
// ambiguous. A failed or inconclusive judgment counts as not ambiguous. Ambiguous
// messages get a clarifying question and skip retrieval; the rest are answered from
// the retrieved chunks only. The user turn and the reply are appended together at
// the end, so a request that fails records nothing.
func (a *Agent) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	message := strings.TrimSpace(a.masker.Mask(req.Message))
	if message == "" {
		return nil, &models.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	sessionID := sessionOrDefault(req.SessionID)
	k := req.K
	if k == 0 {
		k = a.defaultK
	}
	if err := search.ValidateK(k, a.maxK); err != nil {
		return nil, err
	}

	history, err := a.store.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", sessionID, err)
	}
	recent := session.Last(history, a.dialogue.HistoryTurns)
	lines := formatTurns(recent)

	judgment := a.judge(ctx, message, lines)

	var reply *models.ChatReply
	if judgment.Verdict == llm.VerdictAmbiguous {
		reply, err = a.clarify(ctx, message, lines, judgment, k)
	} else {
		reply, err = a.answer(ctx, a.retrievalQuery(message, recent), message, lines, k)
	}
	if err != nil {
		return nil, err
	}
	reply.SessionID = sessionID

	if err := a.store.Append(ctx, sessionID,
		session.NewTurn(models.RoleUser, message),
		session.NewTurn(models.RoleAssistant, reply.Reply),
	); err != nil {
		return nil, fmt.Errorf("save turns for %s: %w", sessionID, err)
	}
	a.logger.Info("chat reply",
		zap.String("session_id", sessionID),
		zap.Bool("used_clarification", reply.UsedClarification),
		zap.Float64("confidence", reply.ConfidenceScore),
		zap.Int("citations", len(reply.Citations)))
	return reply, nil
}

func (a *Agent) judge(ctx context.Context, message string, lines []string) llm.Judgment {
	ctx, cancel := a.llmContext(ctx)
	defer cancel()
	j, err := a.model.JudgeAmbiguous(ctx, message, lines)
	if err != nil {
		a.logger.Warn("ambiguity check failed, answering directly", zap.String("model", a.model.Name()), zap.Error(err))
		return llm.Judgment{Verdict: llm.VerdictUnknown}
	}
	if j.Verdict == llm.VerdictUnknown {
		a.logger.Warn("ambiguity check inconclusive, answering directly", zap.String("model", a.model.Name()))
	}
	return j
}

func (a *Agent) clarify(ctx context.Context, message string, lines []string, j llm.Judgment, k int) (*models.ChatReply, error) {
	question := j.Question
	if question == "" {
		cctx, cancel := a.llmContext(ctx)
		defer cancel()
		q, err := a.model.Complete(cctx, llm.ClarifyPrompt(message, lines), nil)
		if err != nil {
			return nil, models.Upstream("llm", err)
		}
		question = q
	}
	a.logger.Debug("asking for clarification", zap.String("reason", j.Reason))
	return &models.ChatReply{
		Reply:             a.masker.Mask(question),
		Citations:         []models.Citation{},
		Retrieval:         &models.RetrievalSummary{K: k},
		UsedClarification: true,
		ConfidenceScore:   a.confidence.Clarification,
	}, nil
}

func (a *Agent) answer(ctx context.Context, query, message string, lines []string, k int) (*models.ChatReply, error) {
	result, err := a.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	cctx, cancel := a.llmContext(ctx)
	defer cancel()
	text, err := a.model.Complete(cctx, llm.AnswerPrompt(message, lines), result.ChunkTexts())
	if err != nil {
		return nil, models.Upstream("llm", err)
	}
	return &models.ChatReply{
		Reply:           a.masker.Mask(text),
		Citations:       result.Citations,
		Retrieval:       result.Summary(),
		ConfidenceScore: Confidence(a.confidence, result.GroundingScore),
	}, nil
}

// retrievalQuery prefixes message with the previous user turn when contextual
// retrieval is on, so follow-ups like "and the room rent?" keep their subject.
func (a *Agent) retrievalQuery(message string, recent []models.Turn) string {
	if !a.dialogue.ContextualRetrieval {
		return message
	}
	for i := len(recent) - 1; i >= 0; i-- {
		if recent[i].Role == models.RoleUser {
			return recent[i].Text + " " + message
		}
	}
	return message
}

func (a *Agent) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.llmTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.llmTimeout)
}

// Confidence maps a grounded answer's score to the configured confidence.
func Confidence(c config.ConfidenceTable, grounding float64) float64 {
	if grounding > c.GroundingThreshold {
		return c.Grounded
	}
	return c.Weak
}

// History returns the last limit turns of the session (all when limit <= 0).
func (a *Agent) History(ctx context.Context, sessionID string, limit int) (*models.HistoryResponse, error) {
	sessionID = sessionOrDefault(sessionID)
	turns, err := a.store.History(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.HistoryResponse{SessionID: sessionID, History: session.Last(turns, limit)}, nil
}

// ClearHistory forgets the session. Unknown sessions are not an error.
func (a *Agent) ClearHistory(ctx context.Context, sessionID string) error {
	return a.store.Clear(ctx, sessionOrDefault(sessionID))
}

// Sessions lists sessions that have history.
func (a *Agent) Sessions(ctx context.Context) ([]string, error) {
	return a.store.Sessions(ctx)
}

func sessionOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return models.DefaultSessionID
	}
	return id
}

func formatTurns(turns []models.Turn) []string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		role := "User"
		if t.Role == models.RoleAssistant {
			role = "Assistant"
		}
		lines[i] = role + ": " + t.Text
	}
	return lines
}
