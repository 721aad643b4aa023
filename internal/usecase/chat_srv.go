package usecase

import (
	"context"
	"fmt"
	"time"

	"salon-booking/internal/data/entity"
	"salon-booking/internal/data/repository"
	"salon-booking/internal/dto/request"
	"salon-booking/internal/dto/response"
	"salon-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const chatHistoryLimit = 200

type ChatService interface {
	GetCustomerChats(ctx context.Context, customerID uuid.UUID) ([]response.ChatResponse, error)
	GetCustomerChat(ctx context.Context, customerID uuid.UUID, salonID string) (*response.ChatDetailResponse, error)
	SendCustomerMessage(ctx context.Context, customerID uuid.UUID, salonID string, req *request.SendMessageRequest) (*response.MessageResponse, error)

	GetSalonChats(ctx context.Context, ownerID uuid.UUID) ([]response.ChatResponse, error)
	GetSalonChat(ctx context.Context, ownerID uuid.UUID, customerID string) (*response.ChatDetailResponse, error)
	SendSalonMessage(ctx context.Context, ownerID uuid.UUID, customerID string, req *request.SendMessageRequest) (*response.MessageResponse, error)

	MarkMessageRead(ctx context.Context, userID uuid.UUID, messageID string) error
}

type chatService struct {
	repo   *repository.Repository
	notify *notifier
	log    *zap.Logger
}

func NewChatService(repo *repository.Repository, notify *notifier, log *zap.Logger) ChatService {
	return &chatService{
		repo:   repo,
		notify: notify,
		log:    log.With(zap.String("service", "chat")),
	}
}

func chatSummaryToResponse(c *repository.ChatSummary) response.ChatResponse {
	return response.ChatResponse{
		ID:            c.ID.String(),
		CustomerID:    c.CustomerID.String(),
		CustomerName:  c.CustomerName,
		SalonID:       c.SalonID.String(),
		SalonName:     c.SalonName,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadCount,
	}
}

func (s *chatService) GetCustomerChats(ctx context.Context, customerID uuid.UUID) ([]response.ChatResponse, error) {
	chats, err := s.repo.Chat.ListByCustomer(ctx, customerID)
	if err != nil {
		s.log.Error("Failed to list customer chats", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("list chats: %w", err)
	}

	out := make([]response.ChatResponse, len(chats))
	for i, c := range chats {
		out[i] = chatSummaryToResponse(c)
	}
	return out, nil
}

func (s *chatService) GetSalonChats(ctx context.Context, ownerID uuid.UUID) ([]response.ChatResponse, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}

	chats, err := s.repo.Chat.ListBySalon(ctx, salon.ID)
	if err != nil {
		s.log.Error("Failed to list salon chats", zap.Error(err), zap.String("salon_id", salon.ID.String()))
		return nil, fmt.Errorf("list chats: %w", err)
	}

	out := make([]response.ChatResponse, len(chats))
	for i, c := range chats {
		out[i] = chatSummaryToResponse(c)
	}
	return out, nil
}

func (s *chatService) salonByID(ctx context.Context, salonID string) (*entity.Salon, error) {
	id, err := uuid.Parse(salonID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salon ID", utils.ErrValidation)
	}
	salon, err := s.repo.Salon.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find salon: %w", err)
	}
	if salon == nil || !salon.IsActive {
		return nil, fmt.Errorf("%w: salon not found", utils.ErrNotFound)
	}
	return salon, nil
}

func (s *chatService) customerByID(ctx context.Context, customerID string) (*entity.User, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer ID", utils.ErrValidation)
	}
	user, err := s.repo.User.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}
	if user == nil || user.Role != entity.RoleCustomer {
		return nil, fmt.Errorf("%w: customer not found", utils.ErrNotFound)
	}
	return user, nil
}

// detail loads the chat history and marks the counterpart's messages read.
func (s *chatService) detail(ctx context.Context, chat *entity.Chat, reader entity.SenderType, salonName, customerName string) (*response.ChatDetailResponse, error) {
	if _, err := s.repo.Chat.MarkRead(ctx, chat.ID, reader); err != nil {
		s.log.Warn("Failed to mark chat read", zap.Error(err), zap.String("chat_id", chat.ID.String()))
	}

	messages, err := s.repo.Chat.ListMessages(ctx, chat.ID, chatHistoryLimit, 0)
	if err != nil {
		s.log.Error("Failed to list messages", zap.Error(err), zap.String("chat_id", chat.ID.String()))
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := &response.ChatDetailResponse{
		Chat: response.ChatResponse{
			ID:            chat.ID.String(),
			CustomerID:    chat.CustomerID.String(),
			CustomerName:  customerName,
			SalonID:       chat.SalonID.String(),
			SalonName:     salonName,
			LastMessageAt: chat.LastMessageAt,
		},
		Messages: make([]response.MessageResponse, len(messages)),
	}
	for i, m := range messages {
		out.Messages[i] = response.MessageToResponse(m)
	}
	return out, nil
}

func (s *chatService) GetCustomerChat(ctx context.Context, customerID uuid.UUID, salonID string) (*response.ChatDetailResponse, error) {
	salon, err := s.salonByID(ctx, salonID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.Chat.GetOrCreate(ctx, customerID, salon.ID)
	if err != nil {
		s.log.Error("Failed to open chat", zap.Error(err), zap.String("salon_id", salonID))
		return nil, fmt.Errorf("open chat: %w", err)
	}

	return s.detail(ctx, chat, entity.SenderCustomer, salon.Name, "")
}

func (s *chatService) GetSalonChat(ctx context.Context, ownerID uuid.UUID, customerID string) (*response.ChatDetailResponse, error) {
	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.Chat.Find(ctx, customer.ID, salon.ID)
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	if chat == nil {
		return nil, fmt.Errorf("%w: chat not found", utils.ErrNotFound)
	}

	return s.detail(ctx, chat, entity.SenderSalon, salon.Name, customer.DisplayName())
}

func (s *chatService) send(ctx context.Context, chat *entity.Chat, senderID uuid.UUID, senderType entity.SenderType, req *request.SendMessageRequest) (*entity.Message, error) {
	msgType := entity.MessageTypeText
	if req.MessageType != "" {
		msgType = entity.MessageType(req.MessageType)
	}

	msg := &entity.Message{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		ChatID:      chat.ID,
		SenderID:    senderID,
		SenderType:  senderType,
		MessageType: msgType,
		Content:     req.Content,
	}

	if err := s.repo.Chat.AddMessage(ctx, msg); err != nil {
		s.log.Error("Failed to save message", zap.Error(err), zap.String("chat_id", chat.ID.String()))
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.log.Info("Message sent",
		zap.String("chat_id", chat.ID.String()),
		zap.String("sender_type", string(senderType)))
	return msg, nil
}

func (s *chatService) SendCustomerMessage(ctx context.Context, customerID uuid.UUID, salonID string, req *request.SendMessageRequest) (*response.MessageResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salon, err := s.salonByID(ctx, salonID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.Chat.GetOrCreate(ctx, customerID, salon.ID)
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}

	msg, err := s.send(ctx, chat, customerID, entity.SenderCustomer, req)
	if err != nil {
		return nil, err
	}

	senderName := "A customer"
	if customer, err := s.repo.User.FindByID(ctx, customerID); err == nil && customer != nil {
		senderName = customer.DisplayName()
	}
	s.notify.MessageReceived(ctx, salon.OwnerID, senderName)

	resp := response.MessageToResponse(msg)
	return &resp, nil
}

func (s *chatService) SendSalonMessage(ctx context.Context, ownerID uuid.UUID, customerID string, req *request.SendMessageRequest) (*response.MessageResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, utils.FormatValidationErrors(errs))
	}

	salon, err := ownedSalon(ctx, s.repo, ownerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	chat, err := s.repo.Chat.GetOrCreate(ctx, customer.ID, salon.ID)
	if err != nil {
		return nil, fmt.Errorf("open chat: %w", err)
	}

	msg, err := s.send(ctx, chat, ownerID, entity.SenderSalon, req)
	if err != nil {
		return nil, err
	}

	s.notify.MessageReceived(ctx, customer.ID, salon.Name)

	resp := response.MessageToResponse(msg)
	return &resp, nil
}

// MarkMessageRead marks a single message read. Only the recipient may do so.
func (s *chatService) MarkMessageRead(ctx context.Context, userID uuid.UUID, messageID string) error {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return fmt.Errorf("%w: invalid message ID", utils.ErrValidation)
	}

	msg, err := s.repo.Chat.FindMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("find message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message not found", utils.ErrNotFound)
	}

	chat, err := s.repo.Chat.FindByID(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("find chat: %w", err)
	}
	if chat == nil {
		return fmt.Errorf("%w: message not found", utils.ErrNotFound)
	}

	recipient := chat.CustomerID
	if msg.SenderType == entity.SenderCustomer {
		salon, err := s.repo.Salon.FindByID(ctx, chat.SalonID)
		if err != nil {
			return fmt.Errorf("find salon: %w", err)
		}
		if salon == nil {
			return fmt.Errorf("%w: message not found", utils.ErrNotFound)
		}
		recipient = salon.OwnerID
	}
	if recipient != userID {
		return fmt.Errorf("%w: message belongs to another conversation", utils.ErrForbidden)
	}

	if err := s.repo.Chat.MarkMessageRead(ctx, id); err != nil {
		s.log.Error("Failed to mark message read", zap.Error(err), zap.String("message_id", messageID))
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
