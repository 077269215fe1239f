package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studyhub/backend-go/internal/kafka"
	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/logger"
)

// ChatService 问答主流程：画像→检索→组装→生成→落库
type ChatService struct {
	profiles      *ProfileService
	conversations *ConversationService
	assembler     *PromptAssembler
	embedder      knowledge.Embedder
	holder        *knowledge.PairHolder
	generator     Generator
	metrics       *MetricsService
	topK          int
	historyLimit  int
	auditEnabled  bool
}

// NewChatService 创建问答服务
func NewChatService(
	profiles *ProfileService,
	conversations *ConversationService,
	assembler *PromptAssembler,
	embedder knowledge.Embedder,
	holder *knowledge.PairHolder,
	generator Generator,
	metrics *MetricsService,
	topK, historyLimit int,
	auditEnabled bool,
) *ChatService {
	if topK <= 0 {
		topK = 3
	}
	if historyLimit <= 0 {
		historyLimit = 5
	}
	return &ChatService{
		profiles:      profiles,
		conversations: conversations,
		assembler:     assembler,
		embedder:      embedder,
		holder:        holder,
		generator:     generator,
		metrics:       metrics,
		topK:          topK,
		historyLimit:  historyLimit,
		auditEnabled:  auditEnabled,
	}
}

// TurnResult 一轮问答的结果
type TurnResult struct {
	Answer   string                     `json:"answer"`
	Chunks   []knowledge.RetrievedChunk `json:"-"`
	Degraded bool                       `json:"-"`
}

// ProcessQuery 处理一轮问答，返回模型回复原文。
// 查询向量化失败降级为零向量继续作答；生成失败才返回错误。
func (s *ChatService) ProcessQuery(ctx context.Context, userID uint, message string, chatID uint) (*TurnResult, error) {
	started := time.Now()

	profile := s.profiles.Resolve(ctx, userID)

	queryVector, degraded := s.embedQuery(ctx, message)
	chunks := s.retrieve(queryVector)

	history, err := s.conversations.GetRecentMessages(ctx, chatID, s.historyLimit)
	if err != nil {
		logger.Warn("history load failed, continuing without history",
			zap.Uint("chat_id", chatID),
			zap.Error(err))
		history = nil
	}

	systemMessage := s.assembler.BuildSystemMessage(profile, chunks)
	messages := s.assembler.BuildMessages(systemMessage, history, message)

	answer, err := s.generator.Generate(ctx, messages)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObserveTurn("error", time.Since(started), len(chunks))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveTurn("ok", time.Since(started), len(chunks))
	}

	return &TurnResult{
		Answer:   answer,
		Chunks:   chunks,
		Degraded: degraded,
	}, nil
}

// HandleTurn 处理一轮问答并持久化。用户消息与助手回复仅在生成成功后
// 成对写入，失败的轮次不留下半条记录。
func (s *ChatService) HandleTurn(ctx context.Context, userID uint, message string, chatID uint) (*TurnResult, error) {
	result, err := s.ProcessQuery(ctx, userID, message, chatID)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.AppendMessage(ctx, chatID, userID, RoleUser, message); err != nil {
		return nil, err
	}
	if _, err := s.conversations.AppendMessage(ctx, chatID, userID, RoleAssistant, result.Answer); err != nil {
		return nil, err
	}

	s.audit(chatID, userID, message, result)
	return result, nil
}

// embedQuery 向量化查询。失败时降级为零向量并告警，保证问答继续。
func (s *ChatService) embedQuery(ctx context.Context, message string) ([]float32, bool) {
	pair := s.holder.Current()

	vector, err := s.embedder.Embed(ctx, message)
	if err != nil {
		dim := s.embedder.Dimensions()
		if pair != nil {
			dim = pair.Dimension()
		}
		logger.Warn("query embedding failed, falling back to zero vector", zap.Error(err))
		if s.metrics != nil {
			s.metrics.ObserveDegraded()
		}
		return knowledge.ZeroVector(dim), true
	}
	return vector, false
}

func (s *ChatService) retrieve(queryVector []float32) []knowledge.RetrievedChunk {
	pair := s.holder.Current()
	if pair == nil {
		return nil
	}
	return pair.Retrieve(queryVector, s.topK)
}

func (s *ChatService) audit(chatID, userID uint, question string, result *TurnResult) {
	if !s.auditEnabled {
		return
	}
	producer := kafka.GetProducer()
	if producer == nil {
		return
	}

	sources := make([]string, 0, len(result.Chunks))
	for _, c := range result.Chunks {
		sources = append(sources, c.Source)
	}

	event := &kafka.TurnEvent{
		ChatID:    chatID,
		UserID:    userID,
		Question:  question,
		Answer:    result.Answer,
		Sources:   sources,
		Degraded:  result.Degraded,
		Timestamp: time.Now(),
	}
	if err := producer.SendTurnEvent(event); err != nil {
		logger.Warn("turn audit failed", zap.Error(err))
	}
}
