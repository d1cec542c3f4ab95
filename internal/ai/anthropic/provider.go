package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

const (
	// APIBaseURL is the base URL for the Anthropic API
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is the Anthropic API version
	APIVersion = "2023-06-01"

	// DefaultModel is the default Claude model to use
	DefaultModel = "claude-3-5-sonnet-20241022"

	// MaxImageSize is the maximum image size in bytes (20MB)
	MaxImageSize = 20 * 1024 * 1024

	// statusOverloaded is returned by the API when it is temporarily overloaded
	statusOverloaded = 529

	maxTokensJSON = 2048
	maxTokensChat = 1024
)

// Config contains configuration for the Anthropic provider
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides APIBaseURL (tests point this at an httptest server)
	BaseURL string
}

// Provider implements the ai.Provider interface using Anthropic's Messages API
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

var _ ai.Provider = (*Provider)(nil)

// New creates a new Anthropic AI provider. Timeouts come from the caller's
// context, which ai.WithRetry bounds per attempt.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	// Set defaults
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = APIBaseURL
	}

	return &Provider{
		config: config,
		client: &http.Client{},
		logger: logger,
	}, nil
}

// AnalyzeFoodImage estimates the nutrition of the dish in the image using Claude
func (p *Provider) AnalyzeFoodImage(ctx context.Context, params ai.FoodImageParams) (*ai.FoodResult, error) {
	if err := validateImage(&params.Image); err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodImage, err)
	}

	msg := apiMessage{
		Role: "user",
		Content: []apiContent{
			imageContent(&params.Image),
			{Type: "text", Text: ai.FoodImagePrompt(params.NameHint)},
		},
	}
	text, usage, err := p.send(ctx, "", []apiMessage{msg}, maxTokensJSON)
	if err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodImage, err)
	}

	analysis, err := ai.ParseFoodAnalysis(text)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}
	return &ai.FoodResult{Analysis: analysis, Usage: usage}, nil
}

// AnalyzeFoodText estimates the nutrition of a described dish
func (p *Provider) AnalyzeFoodText(ctx context.Context, params ai.FoodTextParams) (*ai.FoodResult, error) {
	msg := textMessage("user", ai.FoodTextPrompt(params.Description))
	text, usage, err := p.send(ctx, "", []apiMessage{msg}, maxTokensJSON)
	if err != nil {
		return nil, ai.WrapError(ai.OpAnalyzeFoodText, err)
	}

	analysis, err := ai.ParseFoodAnalysis(text)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}
	return &ai.FoodResult{Analysis: analysis, Usage: usage}, nil
}

// GenerateRecipe writes a recipe, using the photo when one was supplied
func (p *Provider) GenerateRecipe(ctx context.Context, params ai.RecipeParams) (*ai.RecipeResult, error) {
	content := make([]apiContent, 0, 2)
	if params.Image != nil {
		if err := validateImage(params.Image); err != nil {
			return nil, ai.WrapError(ai.OpGenerateRecipe, err)
		}
		content = append(content, imageContent(params.Image))
	}
	content = append(content, apiContent{Type: "text", Text: ai.RecipePrompt(params)})

	text, usage, err := p.send(ctx, "", []apiMessage{{Role: "user", Content: content}}, maxTokensJSON*2)
	if err != nil {
		return nil, ai.WrapError(ai.OpGenerateRecipe, err)
	}

	recipe, err := ai.ParseRecipe(text)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}
	return &ai.RecipeResult{Recipe: recipe, Usage: usage}, nil
}

// Chat answers the user's message with the system prompt and history
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	messages := make([]apiMessage, 0, len(params.History)+1)
	for _, m := range params.History {
		role := "user"
		if m.Role == domain.ChatRoleAssistant {
			role = "assistant"
		}
		messages = appendTurn(messages, role, apiContent{Type: "text", Text: m.Content})
	}

	last := []apiContent{}
	if params.Image != nil {
		if err := validateImage(params.Image); err != nil {
			return nil, ai.WrapError(ai.OpChat, err)
		}
		last = append(last, imageContent(params.Image))
	}
	last = append(last, apiContent{Type: "text", Text: params.Message})
	messages = appendTurn(messages, "user", last...)

	// The Messages API requires the conversation to open with a user turn.
	for len(messages) > 0 && messages[0].Role != "user" {
		messages = messages[1:]
	}

	text, usage, err := p.send(ctx, params.System, messages, maxTokensChat)
	if err != nil {
		return nil, ai.WrapError(ai.OpChat, err)
	}
	reply := strings.TrimSpace(text)
	if reply == "" {
		return nil, ai.WrapError(ai.OpChat, ai.EAIInvalidResponse)
	}
	return &ai.ChatResult{Reply: reply, Usage: usage}, nil
}

// appendTurn merges consecutive turns of the same role, which the API rejects.
func appendTurn(messages []apiMessage, role string, content ...apiContent) []apiMessage {
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content = append(messages[n-1].Content, content...)
		return messages
	}
	return append(messages, apiMessage{Role: role, Content: content})
}

func textMessage(role, text string) apiMessage {
	return apiMessage{Role: role, Content: []apiContent{{Type: "text", Text: text}}}
}

func imageContent(img *domain.Image) apiContent {
	return apiContent{
		Type: "image",
		Source: &apiImageSource{
			Type:      "base64",
			MediaType: img.ContentType,
			Data:      base64.StdEncoding.EncodeToString(img.Data),
		},
	}
}

// validateImage validates an image before it is sent upstream
func validateImage(img *domain.Image) error {
	if img.IsEmpty() {
		return ai.EAIInvalidImage
	}
	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: image size %d exceeds maximum %d", ai.EAIInvalidImage, len(img.Data), MaxImageSize)
	}

	validTypes := map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	if !validTypes[img.ContentType] {
		return fmt.Errorf("%w: unsupported content type %s", ai.EAIInvalidImage, img.ContentType)
	}
	return nil
}

// send builds and executes a single Messages API request
func (p *Provider) send(ctx context.Context, system string, messages []apiMessage, maxTokens int) (string, ai.UsageInfo, error) {
	startTime := time.Now()

	reqBody := apiRequest{
		Model:     p.config.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", ai.UsageInfo{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", ai.UsageInfo{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := p.executeRequest(ctx, req)
	if err != nil {
		return "", ai.UsageInfo{}, err
	}

	var text string
	for _, content := range resp.Content {
		if content.Type == "text" {
			text = content.Text
			break
		}
	}
	if text == "" {
		return "", ai.UsageInfo{}, fmt.Errorf("%w: no text content in response", ai.EAIInvalidResponse)
	}

	model := resp.Model
	if model == "" {
		model = p.config.Model
	}
	return text, ai.UsageInfo{
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Duration:     time.Since(startTime),
	}, nil
}

// executeRequest executes a single HTTP request
func (p *Provider) executeRequest(ctx context.Context, req *http.Request) (*apiResponse, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ai.EAITimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.mapHTTPError(resp.StatusCode, bodyBytes)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ai.EAIInvalidResponse, err)
	}
	return &apiResp, nil
}

// mapHTTPError maps HTTP status codes to ai errors
func (p *Provider) mapHTTPError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	_ = json.Unmarshal(body, &errResp)

	if errResp.Error.Type == "overloaded_error" {
		return ai.EAIOverloaded
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return ai.EAIRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.EAITimeout
	case http.StatusServiceUnavailable, statusOverloaded:
		return ai.EAIOverloaded
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(errResp.Error.Message), "image") {
			return ai.EAIInvalidImage
		}
		return fmt.Errorf("bad request: %s", errResp.Error.Message)
	case http.StatusInternalServerError, http.StatusBadGateway:
		return ai.EAIUnavailable
	default:
		return fmt.Errorf("API error (status %d): %s", statusCode, errResp.Error.Message)
	}
}

// API request/response types

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *apiImageSource `json:"source,omitempty"`
}

type apiImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiResponse struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Role    string             `json:"role"`
	Content []apiContentOutput `json:"content"`
	Model   string             `json:"model"`
	Usage   apiUsage           `json:"usage"`
}

type apiContentOutput struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type apiErrorResponse struct {
	Type  string   `json:"type"`
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
