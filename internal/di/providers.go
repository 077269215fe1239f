package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"gorm.io/gorm"

	"github.com/studyhub/backend-go/internal/config"
	"github.com/studyhub/backend-go/internal/database"
	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/services"
)

// RegisterProviders 注册所有依赖提供者。
// 配置、数据库与索引持有器在bootstrap阶段已就绪，这里只做装配。
func RegisterProviders(container *dig.Container, holder *knowledge.PairHolder) error {
	if err := container.Provide(func() (*config.Config, error) {
		cfg := config.GetAppConfig()
		if cfg == nil {
			return nil, fmt.Errorf("config not loaded")
		}
		return cfg, nil
	}); err != nil {
		return err
	}

	if err := container.Provide(func() (*gorm.DB, error) {
		if database.DB == nil {
			return nil, fmt.Errorf("database not initialized")
		}
		return database.DB, nil
	}); err != nil {
		return err
	}

	if err := container.Provide(func() *redis.Client {
		return database.RedisClient
	}); err != nil {
		return err
	}

	if err := container.Provide(func() *knowledge.PairHolder {
		return holder
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config) knowledge.Embedder {
		return knowledge.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config) services.Generator {
		return services.NewOpenAIGenerator(cfg.AI.OpenAIAPIKey, cfg.AI.ChatModel, cfg.AI.Temperature, cfg.AI.MaxTokens)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(db *gorm.DB, cache *redis.Client, cfg *config.Config) *services.ProfileService {
		return services.NewProfileService(db, cache, cfg.Redis.TTL)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(db *gorm.DB) *services.ConversationService {
		return services.NewConversationService(db)
	}); err != nil {
		return err
	}

	if err := container.Provide(func(cfg *config.Config) *services.PromptAssembler {
		return services.NewPromptAssembler(cfg.AI.SystemPrompt)
	}); err != nil {
		return err
	}

	if err := container.Provide(services.NewMetricsService); err != nil {
		return err
	}

	return container.Provide(func(
		profiles *services.ProfileService,
		conversations *services.ConversationService,
		assembler *services.PromptAssembler,
		embedder knowledge.Embedder,
		pairHolder *knowledge.PairHolder,
		generator services.Generator,
		metrics *services.MetricsService,
		cfg *config.Config,
	) *services.ChatService {
		return services.NewChatService(
			profiles, conversations, assembler,
			embedder, pairHolder, generator, metrics,
			cfg.Retrieval.TopK, cfg.Retrieval.HistoryLimit,
			cfg.Kafka.Enabled,
		)
	})
}
