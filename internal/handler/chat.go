package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// ChatHandler serves the nutrition assistant.
type ChatHandler struct {
	chat   service.ChatService
	images service.ImageService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat service.ChatService, images service.ImageService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, images: images, logger: logger}
}

// RegisterRoutes registers the assistant routes.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, mw RouteMiddleware) {
	messages := passthrough
	if mw.Metered != nil {
		messages = mw.Metered(domain.UsageMessages)
	}

	mux.Handle("POST /api/ai/chat", messages(http.HandlerFunc(h.Chat)))
	mux.Handle("POST /api/ai/chat-image", messages(http.HandlerFunc(h.ChatImage)))
	mux.Handle("POST /api/ai/daily-summary", orPassthrough(mw.Pro)(http.HandlerFunc(h.DailySummary)))
}

type chatRequest struct {
	Message     string               `json:"message"`
	ChatHistory []domain.ChatMessage `json:"chatHistory"`
}

// Chat answers a text message.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	h.reply(w, r, req.Message, req.ChatHistory, nil)
}

// ChatImage answers a question about the multipart "image". The optional
// "message" and "chatHistory" fields travel as form values, the history as
// a JSON array.
func (h *ChatHandler) ChatImage(w http.ResponseWriter, r *http.Request) {
	form, err := readUpload(w, r, h.images, "image", domain.ImagePurposeChat, isProRequest(r), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var history []domain.ChatMessage
	if raw := form.Fields["chatHistory"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			ErrorResponse(w, r, h.logger, domain.NewValidationError("ChatHandler.ChatImage", "chatHistory", "Chat history must be a JSON array"))
			return
		}
	}
	h.reply(w, r, form.Fields["message"], history, form.Image)
}

func (h *ChatHandler) reply(w http.ResponseWriter, r *http.Request, message string, history []domain.ChatMessage, img *domain.Image) {
	reply, err := h.chat.Chat(r.Context(), auth.GetUser(r.Context()).ID, message, history, img)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := map[string]any{"response": reply}
	if info := auth.GetLimitInfo(r.Context()); info != nil {
		// the gate ran before this message was counted
		resp["remaining"] = max(info.Remaining()-1, 0)
	}
	WriteJSON(w, http.StatusOK, resp)
}

type dailySummaryStats struct {
	TotalCalories  int           `json:"totalCalories"`
	TargetCalories int           `json:"targetCalories"`
	TotalMacros    domain.Macros `json:"totalMacros"`
	TargetMacros   domain.Macros `json:"targetMacros"`
	FoodsCount     int           `json:"foodsCount"`
}

// DailySummary writes an AI review of today's eating. Pro only.
func (h *ChatHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	summary, day, err := h.chat.DailySummary(r.Context(), auth.GetUser(r.Context()).ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"summary": summary,
		"stats": dailySummaryStats{
			TotalCalories:  day.TotalCalories,
			TargetCalories: day.TargetCalories,
			TotalMacros:    day.Consumed,
			TargetMacros:   day.Target,
			FoodsCount:     len(day.Foods),
		},
	})
}
