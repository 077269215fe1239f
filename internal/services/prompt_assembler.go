package services

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/models"
)

// PromptAssembler 组装个性化系统提示与对话消息序列
type PromptAssembler struct {
	basePrompt string
}

// NewPromptAssembler 创建提示组装器
func NewPromptAssembler(basePrompt string) *PromptAssembler {
	return &PromptAssembler{basePrompt: basePrompt}
}

// BuildSystemMessage 生成系统提示：基础提示+语气+人设+风格+语言+检索上下文。
// 人设文本为空时跳过该段；检索结果为空时仍保留上下文标题，模型据此知道没有命中。
func (a *PromptAssembler) BuildSystemMessage(profile Profile, chunks []knowledge.RetrievedChunk) string {
	var b strings.Builder

	b.WriteString(a.basePrompt)
	b.WriteString("\n\n")
	b.WriteString(profile.Tone.Directive())
	b.WriteString("\n")

	if personaText := profile.EffectivePersona(); personaText != "" {
		b.WriteString(personaText)
		b.WriteString("\n")
	}

	b.WriteString(profile.ExplanationStyle.Directive())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Respond in %s.\n", profile.Language.Name())

	b.WriteString("\nRelevant information from student guides:\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "- %s\n(source: %s, page %d)\n\n", chunk.Text, chunk.Source, chunk.Page)
	}

	return b.String()
}

// BuildMessages 生成模型消息序列：[system, 按时间正序的历史..., 当前用户消息]
func (a *PromptAssembler) BuildMessages(systemMessage string, history []models.ChatMessage, userMessage string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemMessage,
	})

	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	return messages
}
