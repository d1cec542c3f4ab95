package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

func TestChatService_Chat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(localTime(2025, 10, 3, 12, 0))
	user := f.store.seedUser(func(u *repository.User) {
		u.Name = "Айгерим"
		u.Allergies = []string{"лактоза"}
	})
	_, err := f.food.AnalyzeImage(ctx, user.ID, testImage())
	require.NoError(t, err)

	history := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "Привет"},
		{Role: "system", Content: "ignored"},
		{Role: domain.ChatRoleAssistant, Content: "  "},
		{Role: domain.ChatRoleAssistant, Content: "Здравствуйте!"},
	}

	reply, err := f.chat.Chat(ctx, user.ID, "Сколько белка мне осталось?", history, nil)
	require.NoError(t, err)
	assert.Contains(t, reply, "Сколько белка")

	last := f.provider.LastChat
	assert.Equal(t, "Сколько белка мне осталось?", last.Message)
	assert.Len(t, last.History, 2)
	assert.Nil(t, last.Image)
	assert.Contains(t, last.System, "Айгерим")
	assert.Contains(t, last.System, "лактоза")
	assert.Contains(t, last.System, "Плов с курицей")

	assert.Equal(t, 1, f.usageOf(user.ID).MessagesCount)
}

func TestChatService_Chat_ImageWithoutMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(localTime(2025, 10, 3, 12, 0))
	user := f.store.seedUser(nil)

	reply, err := f.chat.Chat(ctx, user.ID, "  ", nil, testImage())
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Equal(t, DefaultImageQuestion, f.provider.LastChat.Message)
	assert.NotNil(t, f.provider.LastChat.Image)
}

func TestChatService_Chat_HistoryIsCapped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(localTime(2025, 10, 3, 12, 0))
	user := f.store.seedUser(nil)

	var history []domain.ChatMessage
	for i := 0; i < 25; i++ {
		history = append(history, domain.ChatMessage{Role: domain.ChatRoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	_, err := f.chat.Chat(ctx, user.ID, "ещё", history, nil)
	require.NoError(t, err)
	require.Len(t, f.provider.LastChat.History, domain.MaxChatHistory)
	assert.Equal(t, "m15", f.provider.LastChat.History[0].Content)
}

func TestChatService_Chat_Failures(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		userID   func(u repository.User) uuid.UUID
		message  string
		aiErr    error
		wantCode string
	}{
		{"empty message", func(u repository.User) uuid.UUID { return u.ID }, " ", nil, domain.EINVALID},
		{"unknown user", func(repository.User) uuid.UUID { return uuid.New() }, "hi", nil, domain.ENOTFOUND},
		{"provider unavailable", func(u repository.User) uuid.UUID { return u.ID }, "hi", ai.EAIUnavailable, domain.EUPSTREAM},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(localTime(2025, 10, 3, 12, 0))
			user := f.store.seedUser(nil)
			f.provider.ChatError = tc.aiErr

			_, err := f.chat.Chat(ctx, tc.userID(user), tc.message, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, domain.ErrorCode(err))
			assert.Zero(t, f.usageOf(user.ID).MessagesCount)
		})
	}
}

func TestChatService_DailySummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(localTime(2025, 10, 3, 20, 0))
	user := f.store.seedUser(nil)

	_, err := f.food.AnalyzeImage(ctx, user.ID, testImage())
	require.NoError(t, err)
	f.provider.ChatResponse = &ai.ChatResult{Reply: "Хороший день."}

	reply, summary, err := f.chat.DailySummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Хороший день.", reply)
	assert.Equal(t, "2025-10-03", summary.Date)
	assert.Equal(t, 520, summary.TotalCalories)
	assert.Contains(t, f.provider.LastChat.Message, "2025-10-03")
	assert.Contains(t, f.provider.LastChat.Message, "520 из 2000")

	// The summary is not a metered message.
	assert.Zero(t, f.usageOf(user.ID).MessagesCount)
}
