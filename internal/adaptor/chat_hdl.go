package adaptor

import (
	"net/http"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChatHandler struct {
	service usecase.ChatService
	log     *zap.Logger
}

func NewChatHandler(service usecase.ChatService, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With(zap.String("handler", "chat")),
	}
}

// GetCustomerChats handles GET /api/bookings/chats
func (h *ChatHandler) GetCustomerChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	chats, err := h.service.GetCustomerChats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "get chats")
		return
	}

	utils.ResponseSuccess(w, "success", chats)
}

// GetCustomerChat handles GET /api/bookings/chat/{salon_id}
func (h *ChatHandler) GetCustomerChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	chat, err := h.service.GetCustomerChat(r.Context(), userID, chi.URLParam(r, "salon_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get chat")
		return
	}

	utils.ResponseSuccess(w, "success", chat)
}

// SendCustomerMessage handles POST /api/bookings/chat/{salon_id}/send
func (h *ChatHandler) SendCustomerMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.service.SendCustomerMessage(r.Context(), userID, chi.URLParam(r, "salon_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "send message")
		return
	}

	utils.ResponseCreated(w, "Message sent", msg)
}

// GetSalonChats handles GET /api/bookings/salon/chats
func (h *ChatHandler) GetSalonChats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	chats, err := h.service.GetSalonChats(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, h.log, err, "get salon chats")
		return
	}

	utils.ResponseSuccess(w, "success", chats)
}

// GetSalonChat handles GET /api/bookings/salon/chat/{customer_id}
func (h *ChatHandler) GetSalonChat(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	chat, err := h.service.GetSalonChat(r.Context(), ownerID, chi.URLParam(r, "customer_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get salon chat")
		return
	}

	utils.ResponseSuccess(w, "success", chat)
}

// SendSalonMessage handles POST /api/bookings/salon/chat/{customer_id}/send
func (h *ChatHandler) SendSalonMessage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req request.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.service.SendSalonMessage(r.Context(), ownerID, chi.URLParam(r, "customer_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "send salon message")
		return
	}

	utils.ResponseCreated(w, "Message sent", msg)
}

// MarkMessageRead handles POST /api/bookings/messages/{id}/read
func (h *ChatHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkMessageRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.log, err, "mark message read")
		return
	}

	utils.ResponseSuccess(w, "Message marked as read", nil)
}
