package domain

import "strings"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// MaxChatHistory is how many prior messages are forwarded to the model.
const MaxChatHistory = 10

// MaxChatMessageLength bounds a single user message.
const MaxChatMessageLength = 4000

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ChatRequest is a message plus the context the assistant answers in.
type ChatRequest struct {
	Message    string
	History    []ChatMessage
	User       *User
	TodayFoods []FoodEntry
	Image      *Image
}

// TrimHistory keeps the most recent valid turns.
func TrimHistory(history []ChatMessage) []ChatMessage {
	valid := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != ChatRoleUser && m.Role != ChatRoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		valid = append(valid, m)
	}
	if len(valid) > MaxChatHistory {
		valid = valid[len(valid)-MaxChatHistory:]
	}
	return valid
}

// ValidateChatMessage checks a user message.
func ValidateChatMessage(message string) error {
	const op = "chat.validate"

	message = strings.TrimSpace(message)
	if message == "" {
		return NewValidationError(op, "message", "Message cannot be empty")
	}
	if len(message) > MaxChatMessageLength {
		return NewValidationError(op, "message", "Message is too long")
	}
	return nil
}
