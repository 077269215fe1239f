package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

func buildTestPair(t *testing.T, vectors [][]float32) *IndexPair {
	t.Helper()

	index, err := BuildFlatIndex(len(vectors[0]), vectors)
	require.NoError(t, err)

	records := make([]ChunkRecord, len(vectors))
	for i := range records {
		records[i] = ChunkRecord{
			Text:     "chunk text " + string(rune('a'+i)),
			Source:   "guide.pdf",
			Page:     i / 5,
			Position: i,
		}
	}

	pair, err := NewIndexPair(index, records)
	require.NoError(t, err)
	return pair
}

func TestIndexPairMisalignedBuild(t *testing.T) {
	index, err := BuildFlatIndex(2, [][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)

	_, err = NewIndexPair(index, []ChunkRecord{{Text: "only one"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestIndexPairRetrieve(t *testing.T) {
	pair := buildTestPair(t, [][]float32{
		{0, 0},
		{10, 10},
		{1, 1},
	})

	chunks := pair.Retrieve([]float32{0, 0}, 2)
	require.Len(t, chunks, 2)

	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 2, chunks[1].Position)
	assert.Equal(t, "guide.pdf", chunks[0].Source)
	assert.Equal(t, chunks[0].Text, "chunk text a")
	assert.LessOrEqual(t, chunks[0].Distance, chunks[1].Distance)
}

func TestIndexPairSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	pair := buildTestPair(t, [][]float32{
		{0.5, -1.25, 3},
		{2, 2, 2},
		{-0.1, 0, 9.75},
		{4, 4, 4},
	})
	require.NoError(t, pair.Save(dir))

	loaded, err := LoadIndexPair(dir)
	require.NoError(t, err)

	assert.Equal(t, pair.Count(), loaded.Count())
	assert.Equal(t, pair.Dimension(), loaded.Dimension())

	// 同一查询在保存前后必须命中同样的结果
	query := []float32{0, 0, 3}
	before := pair.Retrieve(query, 3)
	after := loaded.Retrieve(query, 3)
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].Position, after[i].Position)
		assert.Equal(t, before[i].Text, after[i].Text)
		assert.Equal(t, before[i].Page, after[i].Page)
		assert.InDelta(t, float64(before[i].Distance), float64(after[i].Distance), 1e-6)
	}
}

func TestLoadIndexPairMissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadIndexPair(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))

	// 只有向量文件，没有元数据
	pair := buildTestPair(t, [][]float32{{1, 2}})
	require.NoError(t, pair.Save(dir))
	require.NoError(t, os.Remove(filepath.Join(dir, MetadataFileName)))

	_, err = LoadIndexPair(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestLoadIndexPairStampMismatch(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	pairA := buildTestPair(t, [][]float32{{1, 2}, {3, 4}})
	pairB := buildTestPair(t, [][]float32{{5, 6}, {7, 8}})
	require.NoError(t, pairA.Save(dirA))
	require.NoError(t, pairB.Save(dirB))

	// 用B的向量文件顶替A的，配对戳不一致
	data, err := os.ReadFile(filepath.Join(dirB, VectorFileName))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dirA, VectorFileName), data, 0o644))

	_, err = LoadIndexPair(dirA)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestLoadIndexPairCorruptVectorFile(t *testing.T) {
	dir := t.TempDir()

	pair := buildTestPair(t, [][]float32{{1, 2}})
	require.NoError(t, pair.Save(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorFileName), []byte("not a vector file"), 0o644))

	_, err := LoadIndexPair(dir)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestIndexPairSaveReplacesPrevious(t *testing.T) {
	dir := t.TempDir()

	first := buildTestPair(t, [][]float32{{1, 1}, {2, 2}, {3, 3}})
	require.NoError(t, first.Save(dir))

	second := buildTestPair(t, [][]float32{{9, 9}})
	require.NoError(t, second.Save(dir))

	loaded, err := LoadIndexPair(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Count())
}

func TestIndexPairRecordBounds(t *testing.T) {
	pair := buildTestPair(t, [][]float32{{1, 2}})

	rec, ok := pair.Record(0)
	assert.True(t, ok)
	assert.Equal(t, 0, rec.Position)

	_, ok = pair.Record(1)
	assert.False(t, ok)
	_, ok = pair.Record(-1)
	assert.False(t, ok)
}
