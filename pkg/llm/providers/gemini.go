package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GeminiProvider serves completions through the Gemini REST API.
type GeminiProvider struct {
	baseURL           string
	apiKey            string
	model             string
	maxResponseTokens int
	httpClient        *http.Client
	logger            *zap.Logger
}

// Gemini API specific structs
type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

func NewGeminiProvider(config Config, logger *zap.Logger) (Provider, error) {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxResponseTokens == 0 {
		config.MaxResponseTokens = defaultMaxResponseTokens
	}

	provider := &GeminiProvider{
		baseURL:           config.BaseURL,
		apiKey:            config.APIKey,
		model:             config.Model,
		maxResponseTokens: config.MaxResponseTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.With(zap.String("provider", "gemini")),
	}

	if err := provider.ValidateConfig(); err != nil {
		return nil, err
	}

	return provider, nil
}

func (p *GeminiProvider) GetName() string {
	return "gemini"
}

func (p *GeminiProvider) ValidateConfig() error {
	if p.baseURL == "" {
		return fmt.Errorf("base URL is required for Gemini")
	}
	if p.apiKey == "" {
		return fmt.Errorf("API key is required for Gemini")
	}
	if p.model == "" {
		return fmt.Errorf("model is required for Gemini")
	}
	return nil
}

func (p *GeminiProvider) GetSupportedModels() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-1.5-pro",
		"gemini-1.5-flash",
	}
}

func (p *GeminiProvider) GetChatCompletion(ctx context.Context, sessionID, conversation, deployment string) (*CompletionResult, error) {
	return p.complete(ctx, sessionID, chatSystemPrompt, conversation, deployment, p.maxResponseTokens)
}

func (p *GeminiProvider) GetCompletion(ctx context.Context, sessionID, prompt, deployment string) (*CompletionResult, error) {
	return p.complete(ctx, sessionID, chatSystemPrompt, prompt, deployment, p.maxResponseTokens)
}

func (p *GeminiProvider) Summarize(ctx context.Context, sessionID, prompt string) (string, error) {
	result, err := p.complete(ctx, sessionID, summarizeSystemPrompt, prompt, "", defaultMaxSummarizeTokens)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Text), nil
}

func (p *GeminiProvider) complete(ctx context.Context, sessionID, systemPrompt, userContent, deployment string, maxTokens int) (*CompletionResult, error) {
	model := p.model
	if deployment != "" {
		model = deployment
	}

	req := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userContent}},
			},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:     0.7,
			MaxOutputTokens: maxTokens,
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	p.logger.Debug("Sending Gemini request",
		zap.String("session_id", sessionID),
		zap.String("model", model),
		zap.Int("content_length", len(userContent)),
	)

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		p.logger.Error("Gemini API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return nil, fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	result := &CompletionResult{
		Text:           text.String(),
		PromptTokens:   geminiResp.UsageMetadata.PromptTokenCount,
		ResponseTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
	}

	// Some responses omit the usage block; estimate locally so accounting
	// never records zero for a non-empty exchange.
	if result.PromptTokens == 0 {
		result.PromptTokens = EstimateTokens(userContent)
	}
	if result.ResponseTokens == 0 {
		result.ResponseTokens = EstimateTokens(result.Text)
	}

	return result, nil
}
