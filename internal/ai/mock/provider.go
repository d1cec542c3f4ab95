package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	FoodResponse   *ai.FoodResult
	FoodError      error
	RecipeResponse *ai.RecipeResult
	RecipeError    error
	ChatResponse   *ai.ChatResult
	ChatError      error

	// Call tracking for testing
	AnalyzeFoodImageCalls int
	AnalyzeFoodTextCalls  int
	GenerateRecipeCalls   int
	ChatCalls             int
	LastChat              ai.ChatParams
	LastRecipe            ai.RecipeParams
	LastFoodImage         ai.FoodImageParams
}

var _ ai.Provider = (*Provider)(nil)

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

var mockUsage = ai.UsageInfo{
	Model:        "mock-ai-v1",
	InputTokens:  850,
	OutputTokens: 120,
	Duration:     150 * time.Millisecond,
}

// AnalyzeFoodImage returns a canned nutrition estimate
func (p *Provider) AnalyzeFoodImage(ctx context.Context, params ai.FoodImageParams) (*ai.FoodResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeFoodImageCalls++
	p.LastFoodImage = params

	if params.Image.IsEmpty() {
		return nil, ai.EAIInvalidImage
	}
	if p.FoodError != nil || p.FoodResponse != nil {
		return p.food()
	}
	res, _ := p.food()
	if name := ai.DishName(params.NameHint); name != "" {
		res.Analysis.Name = name
	}
	return res, nil
}

// AnalyzeFoodText returns a canned nutrition estimate named after the description
func (p *Provider) AnalyzeFoodText(ctx context.Context, params ai.FoodTextParams) (*ai.FoodResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeFoodTextCalls++

	if p.FoodError != nil || p.FoodResponse != nil {
		return p.food()
	}
	res, _ := p.food()
	if name := ai.DishName(params.Description); name != "" {
		res.Analysis.Name = name
	}
	return res, nil
}

func (p *Provider) food() (*ai.FoodResult, error) {
	if p.FoodError != nil {
		return nil, p.FoodError
	}
	if p.FoodResponse != nil {
		return p.FoodResponse, nil
	}

	// Default canned response
	return &ai.FoodResult{
		Analysis: domain.FoodAnalysis{
			Name:        "Плов с курицей",
			Emoji:       "🍛",
			Calories:    520,
			Macros:      domain.Macros{Protein: 28, Fat: 18.5, Carbs: 61},
			HealthScore: 55,
		},
		Usage: mockUsage,
	}, nil
}

// GenerateRecipe returns a canned recipe for the requested dish
func (p *Provider) GenerateRecipe(ctx context.Context, params ai.RecipeParams) (*ai.RecipeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateRecipeCalls++
	p.LastRecipe = params

	if p.RecipeError != nil {
		return nil, p.RecipeError
	}
	if p.RecipeResponse != nil {
		return p.RecipeResponse, nil
	}

	name := ai.DishName(params.DishName)
	return &ai.RecipeResult{
		Recipe: domain.GeneratedRecipe{
			Name:        name,
			Description: fmt.Sprintf("Домашний вариант блюда %q.", name),
			Calories:    430,
			Macros:      domain.Macros{Protein: 25, Fat: 14, Carbs: 48},
			PrepMinutes: 20,
			CookTime:    "00:40",
			Difficulty:  domain.DifficultyMedium,
			Servings:    2,
			Ingredients: []domain.Ingredient{
				{Name: "Куриное филе", Amount: "300", Unit: "г", Calories: 330},
				{Name: "Рис", Amount: "150", Unit: "г", Calories: 195},
				{Name: "Морковь", Amount: "1", Unit: "шт", Calories: 25},
			},
			Instructions: []string{
				"Шаг 1: Нарежьте курицу и морковь.",
				"Шаг 2: Обжарьте курицу до золотистой корочки.",
				"Шаг 3: Добавьте рис и воду, тушите 25 минут.",
			},
		},
		Usage: mockUsage,
	}, nil
}

// Chat returns a canned reply that echoes the question
func (p *Provider) Chat(ctx context.Context, params ai.ChatParams) (*ai.ChatResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ChatCalls++
	p.LastChat = params

	if p.ChatError != nil {
		return nil, p.ChatError
	}
	if p.ChatResponse != nil {
		return p.ChatResponse, nil
	}

	reply := "Сбалансируйте рацион: добавьте овощи и белок, пейте воду в течение дня."
	if strings.TrimSpace(params.Message) != "" {
		reply = fmt.Sprintf("Про «%s»: %s", truncate(params.Message, 60), reply)
	}
	if params.Image != nil {
		reply = "На фото вижу блюдо. " + reply
	}
	return &ai.ChatResult{Reply: reply, Usage: mockUsage}, nil
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeFoodImageCalls = 0
	p.AnalyzeFoodTextCalls = 0
	p.GenerateRecipeCalls = 0
	p.ChatCalls = 0
	p.FoodResponse = nil
	p.FoodError = nil
	p.RecipeResponse = nil
	p.RecipeError = nil
	p.ChatResponse = nil
	p.ChatError = nil
	p.LastChat = ai.ChatParams{}
	p.LastRecipe = ai.RecipeParams{}
	p.LastFoodImage = ai.FoodImageParams{}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
