package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// DefaultImageQuestion is sent when a photo arrives without a message.
const DefaultImageQuestion = "Что на этом фото? Оцени питательность."

// ChatService answers nutrition questions in the context of the user's day.
type ChatService interface {
	// Chat answers message. img is optional; with an image an empty message
	// is replaced by DefaultImageQuestion. Counts one message and marks the
	// day active.
	Chat(ctx context.Context, userID uuid.UUID, message string, history []domain.ChatMessage, img *domain.Image) (string, error)

	// DailySummary asks for an evaluation of today's diary. Pro only; the
	// caller gates access.
	DailySummary(ctx context.Context, userID uuid.UUID) (string, *domain.DailySummary, error)
}

// ChatStore is the persistence needed by ChatService.
type ChatStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	ListFoodEntriesBetween(ctx context.Context, arg repository.ListFoodEntriesBetweenParams) ([]repository.FoodEntry, error)
}

type chatService struct {
	store    ChatStore
	provider ai.Provider
	meter    *Meter
	cal      *domain.Calendar
	clock    Clock
	logger   *slog.Logger
}

var _ ChatService = (*chatService)(nil)

// NewChatService creates a new ChatService instance.
func NewChatService(store ChatStore, provider ai.Provider, meter *Meter, cal *domain.Calendar, clock Clock, logger *slog.Logger) ChatService {
	return &chatService{
		store:    store,
		provider: provider,
		meter:    meter,
		cal:      cal,
		clock:    clockOrNow(clock),
		logger:   logger,
	}
}

func (s *chatService) Chat(ctx context.Context, userID uuid.UUID, message string, history []domain.ChatMessage, img *domain.Image) (string, error) {
	const op = "ChatService.Chat"

	message = strings.TrimSpace(message)
	if message == "" && !img.IsEmpty() {
		message = DefaultImageQuestion
	}
	if err := domain.ValidateChatMessage(message); err != nil {
		return "", err
	}

	user, foods, err := s.context(ctx, op, userID)
	if err != nil {
		return "", err
	}

	params := ai.ChatParams{
		UserID:  userID,
		System:  ai.ChatSystemPrompt(user, foods),
		History: domain.TrimHistory(history),
		Message: message,
	}
	if !img.IsEmpty() {
		params.Image = img
	}

	result, err := s.provider.Chat(ctx, params)
	if err != nil {
		return "", aiError(err, op, "Failed to get a reply")
	}

	s.meter.Record(ctx, userID, domain.UsageMessages)
	s.logger.Debug("chat answered",
		"user_id", userID,
		"history", len(params.History),
		"with_image", params.Image != nil,
		"output_tokens", result.Usage.OutputTokens,
	)
	return result.Reply, nil
}

func (s *chatService) DailySummary(ctx context.Context, userID uuid.UUID) (string, *domain.DailySummary, error) {
	const op = "ChatService.DailySummary"

	user, foods, err := s.context(ctx, op, userID)
	if err != nil {
		return "", nil, err
	}
	summary := domain.SummarizeDay(s.cal.DateKey(s.clock()), user.Profile, foods)

	result, err := s.provider.Chat(ctx, ai.ChatParams{
		UserID:  userID,
		System:  ai.ChatSystemPrompt(user, foods),
		Message: ai.DailySummaryPrompt(summary),
	})
	if err != nil {
		return "", nil, aiError(err, op, "Failed to build daily summary")
	}
	return result.Reply, &summary, nil
}

// context loads the user and today's entries for the system prompt.
func (s *chatService) context(ctx context.Context, op string, userID uuid.UUID) (*domain.User, []domain.FoodEntry, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound(op, "user", userID.String())
		}
		return nil, nil, domain.Internal(err, op, "Failed to retrieve user")
	}
	user := repoUserToDomain(u)
	user.PasswordHash = ""

	start, end := s.cal.DayBounds(s.clock())
	rows, err := s.store.ListFoodEntriesBetween(ctx, repository.ListFoodEntriesBetweenParams{
		UserID: userID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to list today's food")
	}
	return user, foodEntries(rows), nil
}
