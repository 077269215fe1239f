package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeText("  hello world \n"))

	// 非法字节丢弃，不替换也不报错
	assert.Equal(t, "ab", SanitizeText("a\xffb"))
	assert.Equal(t, "", SanitizeText("\xff\xfe"))
}

func TestZeroVector(t *testing.T) {
	v := ZeroVector(4)
	assert.Len(t, v, 4)
	for _, x := range v {
		assert.Equal(t, float32(0), x)
	}
}

func TestNewOpenAIEmbedderWithoutKey(t *testing.T) {
	embedder := NewOpenAIEmbedder("", "text-embedding-3-small")
	assert.False(t, embedder.Ready())

	_, err := embedder.Embed(context.Background(), "text")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmbedding))
}

func TestEmbedderDimensions(t *testing.T) {
	assert.Equal(t, 1536, NewOpenAIEmbedder("sk-test", "text-embedding-3-small").Dimensions())
	assert.Equal(t, 3072, NewOpenAIEmbedder("sk-test", "text-embedding-3-large").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("sk-test", "some-unknown-model").Dimensions())
}
