package models

import (
	"time"
)

// Chat 聊天会话表
type Chat struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Chat) TableName() string {
	return "chats"
}

// ChatMessage 聊天消息表，role为user或assistant
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	ChatID    uint      `gorm:"column:chat_id;not null;index" json:"chat_id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Role      string    `gorm:"column:role;size:20;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index;autoCreateTime" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
