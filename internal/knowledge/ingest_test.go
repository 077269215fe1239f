package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

// stubEmbedder 确定性向量：首词长度与文本长度构成二维向量
type stubEmbedder struct {
	failAfter int // 负数表示不失败
	calls     int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.failAfter >= 0 && s.calls > s.failAfter {
		return nil, apperrors.NewEmbeddingError(errors.New("provider down"))
	}
	return []float32{float32(len(text)), float32(len(text) % 7)}, nil
}

func (s *stubEmbedder) Dimensions() int { return 2 }
func (s *stubEmbedder) Ready() bool     { return true }

func writeGuide(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestPipeline(embedder Embedder) *IngestionPipeline {
	return NewIngestionPipeline(NewFileParserManager(), NewChunker(3), embedder)
}

func TestIngestDirectoryAlignment(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "alpha.txt", "one two three four five six seven")
	writeGuide(t, dir, "beta.txt", "a b c")

	pipeline := newTestPipeline(&stubEmbedder{failAfter: -1})
	pair, err := pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	// alpha: 3块，beta: 1块
	assert.Equal(t, 4, pair.Count())

	for pos := 0; pos < pair.Count(); pos++ {
		rec, ok := pair.Record(pos)
		require.True(t, ok)
		assert.Equal(t, pos, rec.Position)
		assert.NotEmpty(t, rec.Text)
		assert.NotEmpty(t, rec.Source)
	}

	// 文件名排序：alpha在前
	rec, _ := pair.Record(0)
	assert.Equal(t, "alpha.txt", rec.Source)
	rec, _ = pair.Record(3)
	assert.Equal(t, "beta.txt", rec.Source)
}

func TestIngestPageFromChunkOrdinal(t *testing.T) {
	dir := t.TempDir()

	// 7块 → 页码 0,0,0,0,0,1,1
	var words string
	for i := 0; i < 21; i++ {
		words += fmt.Sprintf("w%d ", i)
	}
	writeGuide(t, dir, "long.txt", words)

	pipeline := newTestPipeline(&stubEmbedder{failAfter: -1})
	pair, err := pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 7, pair.Count())

	for pos := 0; pos < 7; pos++ {
		rec, _ := pair.Record(pos)
		assert.Equal(t, pos/5, rec.Page)
	}
}

func TestIngestSkipsFailedDocuments(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "good.txt", "usable words here")
	writeGuide(t, dir, "empty.txt", "   ")
	writeGuide(t, dir, "broken.pdf", "this is not a pdf")

	pipeline := newTestPipeline(&stubEmbedder{failAfter: -1})
	pair, err := pipeline.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, pair.Count())
	rec, _ := pair.Record(0)
	assert.Equal(t, "good.txt", rec.Source)
}

func TestIngestEmbeddingFailureAborts(t *testing.T) {
	dir := t.TempDir()
	writeGuide(t, dir, "alpha.txt", "one two three four five six")

	// 第二块向量化失败，整体中止
	pipeline := newTestPipeline(&stubEmbedder{failAfter: 1})
	_, err := pipeline.IngestDirectory(context.Background(), dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmbedding))
}

func TestIngestEmptyDirectory(t *testing.T) {
	pipeline := newTestPipeline(&stubEmbedder{failAfter: -1})

	_, err := pipeline.IngestDirectory(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestIngestAndSaveRoundTrip(t *testing.T) {
	sourceDir := t.TempDir()
	indexDir := t.TempDir()
	writeGuide(t, sourceDir, "guide.txt", "alpha beta gamma delta epsilon zeta")

	pipeline := newTestPipeline(&stubEmbedder{failAfter: -1})
	pair, err := pipeline.IngestAndSave(context.Background(), sourceDir, indexDir)
	require.NoError(t, err)

	loaded, err := LoadIndexPair(indexDir)
	require.NoError(t, err)
	assert.Equal(t, pair.Count(), loaded.Count())
}
