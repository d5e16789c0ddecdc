package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"
)

const (
	chatSystemPrompt      = "You are an AI assistant that helps people find information. Provide concise answers that are polite and professional."
	summarizeSystemPrompt = "Summarize this prompt in one or two words to use as a label in a button on a web page."

	defaultMaxResponseTokens  = 1000
	defaultMaxSummarizeTokens = 10
)

// OpenAIProvider serves completions through any OpenAI-compatible endpoint.
type OpenAIProvider struct {
	baseURL           string
	apiKey            string
	model             string
	maxResponseTokens int
	httpClient        *http.Client
	client            *openai.Client
	logger            *zap.Logger
}

func NewOpenAIProvider(config Config, logger *zap.Logger) (Provider, error) {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxResponseTokens == 0 {
		config.MaxResponseTokens = defaultMaxResponseTokens
	}

	provider := &OpenAIProvider{
		baseURL:           config.BaseURL,
		apiKey:            config.APIKey,
		model:             config.Model,
		maxResponseTokens: config.MaxResponseTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With(zap.String("provider", "openai")),
	}

	opts := []option.RequestOption{
		option.WithAPIKey(provider.apiKey),
		option.WithHTTPClient(provider.httpClient),
	}
	if provider.baseURL != "" {
		opts = append(opts, option.WithBaseURL(provider.baseURL))
	}

	oaClient := openai.NewClient(opts...)
	provider.client = &oaClient

	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	return provider, nil
}

func (p *OpenAIProvider) GetName() string {
	return "openai"
}

func (p *OpenAIProvider) ValidateConfig() error {
	if p.apiKey == "" {
		return fmt.Errorf("API key is required for OpenAI")
	}
	if p.model == "" {
		return fmt.Errorf("model is required for OpenAI")
	}
	return nil
}

func (p *OpenAIProvider) GetSupportedModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-3.5-turbo",
	}
}

func (p *OpenAIProvider) GetChatCompletion(ctx context.Context, sessionID, conversation, deployment string) (*CompletionResult, error) {
	return p.complete(ctx, sessionID, chatSystemPrompt, conversation, deployment, p.maxResponseTokens)
}

func (p *OpenAIProvider) GetCompletion(ctx context.Context, sessionID, prompt, deployment string) (*CompletionResult, error) {
	return p.complete(ctx, sessionID, chatSystemPrompt, prompt, deployment, p.maxResponseTokens)
}

func (p *OpenAIProvider) Summarize(ctx context.Context, sessionID, prompt string) (string, error) {
	result, err := p.complete(ctx, sessionID, summarizeSystemPrompt, prompt, "", defaultMaxSummarizeTokens)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Text), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, sessionID, systemPrompt, userContent, deployment string, maxTokens int) (*CompletionResult, error) {
	model := p.model
	if deployment != "" {
		model = deployment
	}

	oaMessages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userContent),
	}

	p.logger.Debug("Sending OpenAI request",
		zap.String("session_id", sessionID),
		zap.String("model", model),
		zap.Int("content_length", len(userContent)),
	)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    oaMessages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in completion response")
	}

	return &CompletionResult{
		Text:           resp.Choices[0].Message.Content,
		PromptTokens:   int(resp.Usage.PromptTokens),
		ResponseTokens: int(resp.Usage.CompletionTokens),
	}, nil
}
