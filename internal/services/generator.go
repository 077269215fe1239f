package services

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

// Generator 回复生成接口
type Generator interface {
	Generate(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// OpenAIGenerator 调用OpenAI Chat Completion生成回复
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIGenerator 创建OpenAI回复生成器
func NewOpenAIGenerator(apiKey, model string, temperature float64, maxTokens int) *OpenAIGenerator {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIGenerator{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   maxTokens,
	}
}

// Generate 生成回复，返回模型原文，不做任何加工
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	if g.client == nil {
		return "", apperrors.NewGenerationError(errors.New("openai client not initialized"))
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", apperrors.NewGenerationError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewGenerationError(errors.New("completion response empty"))
	}

	return resp.Choices[0].Message.Content, nil
}
