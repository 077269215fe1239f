package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/studyhub/backend-go/internal/errors"
	"github.com/studyhub/backend-go/internal/logger"
	"github.com/studyhub/backend-go/internal/models"
	"github.com/studyhub/backend-go/internal/persona"
)

// Profile 解析后的用户画像，所有字段保证非法值已回退到默认
type Profile struct {
	Language         persona.Language    `json:"language"`
	Tone             persona.Tone        `json:"tone"`
	PersonaType      persona.PersonaType `json:"persona_type"`
	PersonaKey       persona.PersonaKey  `json:"persona_key"`
	CustomPersona    string              `json:"custom_persona"`
	ExplanationStyle persona.Style       `json:"explanation_style"`
}

// DefaultProfile 画像默认值
func DefaultProfile() Profile {
	return Profile{
		Language:         persona.LanguageEnglish,
		Tone:             persona.ToneWarm,
		PersonaType:      persona.PersonaTypePredefined,
		PersonaKey:       persona.PersonaPeerMentor,
		CustomPersona:    "",
		ExplanationStyle: persona.StyleDetailed,
	}
}

// EffectivePersona 返回实际生效的人设文本。
// custom类型用自定义文本原文；predefined查表；未知键返回空串，不报错。
func (p Profile) EffectivePersona() string {
	if p.PersonaType == persona.PersonaTypeCustom && p.CustomPersona != "" {
		return p.CustomPersona
	}
	return p.PersonaKey.Text()
}

// ProfileService 用户画像服务，可选redis读穿缓存
type ProfileService struct {
	db       *gorm.DB
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewProfileService 创建画像服务，cache可为nil
func NewProfileService(db *gorm.DB, cache *redis.Client, cacheTTLSeconds int) *ProfileService {
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = 300
	}
	return &ProfileService{
		db:       db,
		cache:    cache,
		cacheTTL: time.Duration(cacheTTLSeconds) * time.Second,
	}
}

func profileCacheKey(userID uint) string {
	return fmt.Sprintf("profile:%d", userID)
}

// Resolve 解析用户画像。用户不存在或字段缺失/非法时逐字段回退默认值，
// 画像解析永不失败。
func (s *ProfileService) Resolve(ctx context.Context, userID uint) Profile {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, profileCacheKey(userID)).Result(); err == nil {
			var p Profile
			if json.Unmarshal([]byte(cached), &p) == nil {
				return s.normalize(p)
			}
		}
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("profile lookup failed, using defaults",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
		return DefaultProfile()
	}

	profile := s.normalize(Profile{
		Language:         persona.Language(user.Language),
		Tone:             persona.Tone(user.Tone),
		PersonaType:      persona.PersonaType(user.PersonaType),
		PersonaKey:       persona.PersonaKey(user.PersonaKey),
		CustomPersona:    user.CustomPersona,
		ExplanationStyle: persona.Style(user.ExplanationStyle),
	})

	if s.cache != nil {
		if data, err := json.Marshal(profile); err == nil {
			if err := s.cache.Set(ctx, profileCacheKey(userID), data, s.cacheTTL).Err(); err != nil {
				logger.Warn("profile cache write failed", zap.Error(err))
			}
		}
	}

	return profile
}

// normalize 逐字段校验，非法值回退默认。
// 人设键例外：保留未知键，查表时fail open为空文本。
func (s *ProfileService) normalize(p Profile) Profile {
	defaults := DefaultProfile()

	if !p.Language.Valid() {
		p.Language = defaults.Language
	}
	if !p.Tone.Valid() {
		p.Tone = defaults.Tone
	}
	if p.PersonaType != persona.PersonaTypePredefined && p.PersonaType != persona.PersonaTypeCustom {
		p.PersonaType = defaults.PersonaType
	}
	if p.PersonaKey == "" {
		p.PersonaKey = defaults.PersonaKey
	}
	if !p.ExplanationStyle.Valid() {
		p.ExplanationStyle = defaults.ExplanationStyle
	}
	return p
}

// UpdateProfileRequest 画像更新请求，字段为空表示不修改
type UpdateProfileRequest struct {
	Language         string `json:"language"`
	Tone             string `json:"tone"`
	PersonaType      string `json:"persona_type"`
	PersonaKey       string `json:"persona_key"`
	CustomPersona    string `json:"custom_persona"`
	ExplanationStyle string `json:"explanation_style"`
}

// Update 更新用户画像字段并淘汰缓存
func (s *ProfileService) Update(ctx context.Context, userID uint, req *UpdateProfileRequest) (Profile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Profile{}, apperrors.NewNotFoundError(fmt.Sprintf("user %d", userID))
		}
		return Profile{}, err
	}

	updates := map[string]interface{}{}
	if req.Language != "" {
		if !persona.Language(req.Language).Valid() {
			return Profile{}, apperrors.NewValidationError(fmt.Sprintf("unsupported language: %s", req.Language))
		}
		updates["language"] = req.Language
	}
	if req.Tone != "" {
		if !persona.Tone(req.Tone).Valid() {
			return Profile{}, apperrors.NewValidationError(fmt.Sprintf("unsupported tone: %s", req.Tone))
		}
		updates["tone"] = req.Tone
	}
	if req.PersonaType != "" {
		if req.PersonaType != string(persona.PersonaTypePredefined) && req.PersonaType != string(persona.PersonaTypeCustom) {
			return Profile{}, apperrors.NewValidationError(fmt.Sprintf("unsupported persona_type: %s", req.PersonaType))
		}
		updates["persona_type"] = req.PersonaType
	}
	if req.PersonaKey != "" {
		updates["persona_key"] = req.PersonaKey
	}
	if req.CustomPersona != "" {
		updates["custom_persona"] = req.CustomPersona
	}
	if req.ExplanationStyle != "" {
		if !persona.Style(req.ExplanationStyle).Valid() {
			return Profile{}, apperrors.NewValidationError(fmt.Sprintf("unsupported explanation_style: %s", req.ExplanationStyle))
		}
		updates["explanation_style"] = req.ExplanationStyle
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return Profile{}, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, profileCacheKey(userID)).Err(); err != nil {
			logger.Warn("profile cache invalidation failed", zap.Error(err))
		}
	}

	return s.Resolve(ctx, userID), nil
}
