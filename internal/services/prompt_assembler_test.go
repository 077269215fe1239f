package services

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/models"
	"github.com/studyhub/backend-go/internal/persona"
)

const testBasePrompt = "You are a friendly and factual academic assistant."

func TestBuildSystemMessageSections(t *testing.T) {
	assembler := NewPromptAssembler(testBasePrompt)

	profile := Profile{
		Language:         "xhosa",
		Tone:             persona.ToneFormal,
		PersonaType:      persona.PersonaTypePredefined,
		PersonaKey:       persona.PersonaXhosaElder,
		ExplanationStyle: persona.StyleBrief,
	}

	chunks := []knowledge.RetrievedChunk{
		{Text: "Mitosis is cell division.", Source: "biology.pdf", Page: 2},
	}

	system := assembler.BuildSystemMessage(profile, chunks)

	assert.Contains(t, system, testBasePrompt)
	assert.Contains(t, system, persona.ToneFormal.Directive())
	assert.Contains(t, system, persona.PersonaXhosaElder.Text())
	assert.Contains(t, system, persona.StyleBrief.Directive())
	assert.Contains(t, system, "Respond in isiXhosa.")
	assert.Contains(t, system, "Relevant information from student guides:")
	assert.Contains(t, system, "- Mitosis is cell division.\n(source: biology.pdf, page 2)\n\n")
}

func TestBuildSystemMessageCustomPersonaVerbatim(t *testing.T) {
	assembler := NewPromptAssembler(testBasePrompt)

	profile := Profile{
		Language:         persona.LanguageEnglish,
		Tone:             persona.ToneWarm,
		PersonaType:      persona.PersonaTypeCustom,
		PersonaKey:       persona.PersonaPeerMentor,
		CustomPersona:    "Speak like a pirate who loves mathematics.",
		ExplanationStyle: persona.StyleDetailed,
	}

	system := assembler.BuildSystemMessage(profile, nil)

	// 自定义人设原文注入，预置文本不出现
	assert.Contains(t, system, "Speak like a pirate who loves mathematics.")
	assert.NotContains(t, system, persona.PersonaPeerMentor.Text())
}

func TestBuildSystemMessageUnknownPersonaKeySkipped(t *testing.T) {
	assembler := NewPromptAssembler(testBasePrompt)

	profile := Profile{
		Language:         persona.LanguageEnglish,
		Tone:             persona.ToneWarm,
		PersonaType:      persona.PersonaTypePredefined,
		PersonaKey:       persona.PersonaKey("retired_astronaut"),
		ExplanationStyle: persona.StyleDetailed,
	}

	system := assembler.BuildSystemMessage(profile, nil)
	assert.Contains(t, system, persona.ToneWarm.Directive())
	assert.Contains(t, system, persona.StyleDetailed.Directive())
}

func TestBuildMessagesOrdering(t *testing.T) {
	assembler := NewPromptAssembler(testBasePrompt)

	history := []models.ChatMessage{
		{Role: RoleUser, Content: "What is mitosis?"},
		{Role: RoleAssistant, Content: "Cell division."},
	}

	messages := assembler.BuildMessages("system text", history, "And meiosis?")
	require.Len(t, messages, 4)

	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, "system text", messages[0].Content)
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, "What is mitosis?", messages[1].Content)
	assert.Equal(t, RoleAssistant, messages[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[3].Role)
	assert.Equal(t, "And meiosis?", messages[3].Content)
}

func TestBuildMessagesNoHistory(t *testing.T) {
	assembler := NewPromptAssembler(testBasePrompt)

	messages := assembler.BuildMessages("system text", nil, "hello")
	require.Len(t, messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
}
