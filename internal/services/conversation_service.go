package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/studyhub/backend-go/internal/errors"
	"github.com/studyhub/backend-go/internal/models"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationService 会话与消息的持久化访问
type ConversationService struct {
	db *gorm.DB
}

// NewConversationService 创建会话服务
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// CreateChat 为用户创建新会话
func (s *ConversationService) CreateChat(ctx context.Context, userID uint, title string) (*models.Chat, error) {
	chat := &models.Chat{
		UserID: userID,
		Title:  title,
	}
	if err := s.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// GetChat 获取会话并校验归属
func (s *ConversationService) GetChat(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.WithContext(ctx).First(&chat, "id = ? AND user_id = ?", chatID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("chat %d", chatID))
		}
		return nil, err
	}
	return &chat, nil
}

// ListChats 列出用户的会话，按更新时间倒序
func (s *ConversationService) ListChats(ctx context.Context, userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// GetChatMessages 获取会话的全部消息，按时间正序
func (s *ConversationService) GetChatMessages(ctx context.Context, chatID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nil
}

// GetRecentMessages 获取会话最近的limit条消息，按时间正序返回。
// 倒序取limit条再反转，保证截断的是最早的消息。
func (s *ConversationService) GetRecentMessages(ctx context.Context, chatID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendMessage 追加一条消息并刷新会话更新时间
func (s *ConversationService) AppendMessage(ctx context.Context, chatID, userID uint, role, content string) (*models.ChatMessage, error) {
	message := &models.ChatMessage{
		ChatID:  chatID,
		UserID:  userID,
		Role:    role,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	s.db.WithContext(ctx).Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", message.CreatedAt)

	return message, nil
}
