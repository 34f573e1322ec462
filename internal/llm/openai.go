package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures an OpenAI or Azure OpenAI chat model.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// Azure switches to Azure OpenAI; Model is then the deployment name.
	Azure      bool
	APIVersion string
}

// OpenAIModel calls the chat completions API. It performs no retries; callers bound
// each call with a context deadline.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	name        string
}

// NewOpenAIModel creates a chat model client.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai model: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	var clientCfg openai.ClientConfig
	name := "openai/" + cfg.Model
	if cfg.Azure {
		if cfg.BaseURL == "" {
			return nil, errors.New("azure model: missing endpoint")
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		deployment := cfg.Model
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
		name = "azure/" + cfg.Model
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		name:        name,
	}, nil
}

// Complete sends grounding as the system message and prompt as the user message.
func (m *OpenAIModel) Complete(ctx context.Context, prompt string, grounding []string) (string, error) {
	return m.chat(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: groundingMessage(grounding)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// JudgeAmbiguous asks for a JSON judgment and parses it.
func (m *OpenAIModel) JudgeAmbiguous(ctx context.Context, message string, history []string) (Judgment, error) {
	reply, err := m.chat(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: JudgePrompt(message, history)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return Judgment{}, err
	}
	return ParseJudgment(reply)
}

// Name returns the provider and model.
func (m *OpenAIModel) Name() string {
	return m.name
}

func (m *OpenAIModel) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
