// Package openai implements ai.Provider on any OpenAI-compatible chat
// completions endpoint (OpenAI itself, or Gemini's compatibility layer via
// BaseURL).
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// MaxImageSize is the largest processed image sent upstream (20MB).
	MaxImageSize = 20 * 1024 * 1024

	maxTokensJSON = 2048
	maxTokensChat = 1024

	// statusOverloaded is the non-standard status some gateways use for overload.
	statusOverloaded = 529
)

// Config contains configuration for the OpenAI-compatible provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Provider implements ai.Provider with go-openai.
type Provider struct {
	config Config
	client *goopenai.Client
	logger *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// New creates a new OpenAI-compatible provider.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}

	return &Provider{
		config: config,
		client: goopenai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// AnalyzeFoodImage estimates the nutrition of the dish in the image.
func (p *Provider) AnalyzeFoodImage(ctx context.Context, params ai.FoodImageParams) (*ai.FoodResult, error) {
	if err := validateImage(&params.Image); err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodImage, err)
	}

	msg := imageMessage(ai.FoodImagePrompt(params.NameHint), &params.Image)
	answer, usage, err := p.complete(ctx, []goopenai.ChatCompletionMessage{msg}, true, maxTokensJSON)
	if err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodImage, err)
	}

	analysis, err := ai.ParseFoodAnalysis(answer)
	if err != nil {
		p.logger.Warn("unreadable food analysis", "answer", truncate(answer, 200))
		return nil, ai.WrapError(ai.OpAnalyzeFoodImage, err)
	}
	return &ai.FoodResult{Analysis: analysis, Usage: usage}, nil
}

// AnalyzeFoodText estimates the nutrition of a described dish.
func (p *Provider) AnalyzeFoodText(ctx context.Context, params ai.FoodTextParams) (*ai.FoodResult, error) {
	msg := goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: ai.FoodTextPrompt(params.Description),
	}
	answer, usage, err := p.complete(ctx, []goopenai.ChatCompletionMessage{msg}, true, maxTokensJSON)
	if err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodText, err)
	}

	analysis, err := ai.ParseFoodAnalysis(answer)
	if err != nil {
		p.logger.Warn("unreadable food analysis", "answer", truncate(answer, 200))
		return nil, ai.WrapError(ai.OpAnalyzeFoodText, err)
	}
	return &ai.FoodResult{Analysis: analysis, Usage: usage}, nil
}

// GenerateRecipe writes a recipe for the dish.
func (p *Provider) GenerateRecipe(ctx context.Context, params ai.RecipeParams) (*ai.RecipeResult, error) {
	var msg goopenai.ChatCompletionMessage
	if params.Image != nil {
		if err := validateImage(params.Image); err != nil {
			return nil, ai.WrapError(ai.OpGenerateRecipe, err)
		}
		msg = imageMessage(ai.RecipePrompt(params), params.Image)
	} else {
		msg = goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: ai.RecipePrompt(params),
		}
	}

	answer, usage, err := p.complete(ctx, []goopenai.ChatCompletionMessage{msg}, true, maxTokensJSON*2)
	if err != nil {
		return nil, ai.WrapError(ai.OpGenerateRecipe, err)
	}

	recipe, err := ai.ParseRecipe(answer)
	if err != nil {
		p.logger.Warn("unreadable recipe", "answer", truncate(answer, 200))
		return nil, ai.WrapError(ai.OpGenerateRecipe, err)
	}
	return &ai.RecipeResult{Recipe: recipe, Usage: usage}, nil
}

// Chat answers the user's message.
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(params.History)+2)
	if params.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: params.System,
		})
	}
	for _, m := range params.History {
		role := goopenai.ChatMessageRoleUser
		if m.Role == domain.ChatRoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	if params.Image != nil {
		if err := validateImage(params.Image); err != nil {
			return nil, ai.WrapError(ai.OpChat, err)
		}
		messages = append(messages, imageMessage(params.Message, params.Image))
	} else {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: params.Message,
		})
	}

	answer, usage, err := p.complete(ctx, messages, false, maxTokensChat)
	if err != nil {
		return nil, ai.WrapError(ai.OpChat, err)
	}
	reply := strings.TrimSpace(answer)
	if reply == "" {
		return nil, ai.WrapError(ai.OpChat, ai.EAIInvalidResponse)
	}
	return &ai.ChatResult{Reply: reply, Usage: usage}, nil
}

// complete performs exactly one chat completion request.
func (p *Provider) complete(ctx context.Context, messages []goopenai.ChatCompletionMessage, jsonMode bool, maxTokens int) (string, ai.UsageInfo, error) {
	start := time.Now()

	req := goopenai.ChatCompletionRequest{
		Model:     p.config.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if jsonMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", ai.UsageInfo{}, mapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", ai.UsageInfo{}, fmt.Errorf("%w: no choices", ai.EAIInvalidResponse)
	}

	usage := ai.UsageInfo{
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Duration:     time.Since(start),
	}
	if usage.Model == "" {
		usage.Model = p.config.Model
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func imageMessage(prompt string, img *domain.Image) goopenai.ChatCompletionMessage {
	return goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    img.DataURI(),
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		},
	}
}

func validateImage(img *domain.Image) error {
	if img.IsEmpty() {
		return ai.EAIInvalidImage
	}
	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: image size %d exceeds maximum %d", ai.EAIInvalidImage, len(img.Data), MaxImageSize)
	}
	if !domain.IsValidImageContentType(img.ContentType) {
		return fmt.Errorf("%w: unsupported content type %s", ai.EAIInvalidImage, img.ContentType)
	}
	return nil
}

// mapError maps go-openai errors to ai sentinel errors.
func mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return mapStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return mapStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ai.EAITimeout, err)
		}
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}
	return err
}

func mapStatus(status int, message string, err error) error {
	switch {
	case status == http.StatusServiceUnavailable || status == statusOverloaded:
		return fmt.Errorf("%w: %v", ai.EAIOverloaded, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.EAIRateLimit, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ai.EAIUnauthorized, err)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	case status >= 500:
		if strings.Contains(strings.ToLower(message), "overloaded") {
			return fmt.Errorf("%w: %v", ai.EAIOverloaded, err)
		}
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "image"):
		return fmt.Errorf("%w: %v", ai.EAIInvalidImage, err)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "policy"):
		return fmt.Errorf("%w: %v", ai.EAIContentPolicy, err)
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
