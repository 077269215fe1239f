package models

import (
	"time"
)

// User 用户模型，携带个性化画像字段
type User struct {
	UserID           uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username         string    `gorm:"size:100;not null;unique" json:"username"`
	Email            string    `gorm:"size:255;not null;unique" json:"email"`
	Language         string    `gorm:"column:language;size:50" json:"language"`
	Tone             string    `gorm:"column:tone;size:50" json:"tone"`
	PersonaType      string    `gorm:"column:persona_type;size:20" json:"persona_type"`
	PersonaKey       string    `gorm:"column:persona_key;size:100" json:"persona_key"`
	CustomPersona    string    `gorm:"type:text;column:custom_persona" json:"custom_persona"`
	ExplanationStyle string    `gorm:"column:explanation_style;size:50" json:"explanation_style"`
	CreateTime       time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime       time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (User) TableName() string {
	return "users"
}
