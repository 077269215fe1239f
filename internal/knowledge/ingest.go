package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	apperrors "github.com/studyhub/backend-go/internal/errors"
	"github.com/studyhub/backend-go/internal/logger"
)

// 每页折算的分块数，用于从分块序号推算引用页码
const chunksPerPage = 5

// IngestionPipeline 文档摄取管道：解析→分块→向量化→建索引→落盘。
// 向量化失败立即中止本次摄取，绝不写入与元数据错位的索引。
type IngestionPipeline struct {
	parser   *FileParserManager
	chunker  *Chunker
	embedder Embedder
}

// NewIngestionPipeline 创建摄取管道
func NewIngestionPipeline(parser *FileParserManager, chunker *Chunker, embedder Embedder) *IngestionPipeline {
	return &IngestionPipeline{
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
	}
}

// IngestDirectory 摄取目录下所有支持格式的文档并构建索引对。
// 单个文档解析失败只告警跳过；向量化失败则整体失败。
func (p *IngestionPipeline) IngestDirectory(ctx context.Context, sourceDir string) (*IndexPair, error) {
	files, err := p.listSourceFiles(sourceDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("no supported documents found in %s", sourceDir))
	}

	var vectors [][]float32
	var records []ChunkRecord

	for _, path := range files {
		text, err := p.extractFile(path)
		if err != nil {
			logger.Warn("skipping document: extraction failed",
				zap.String("file", path),
				zap.Error(err))
			continue
		}

		source := filepath.Base(path)
		for _, chunk := range p.chunker.Split(text) {
			vector, err := p.embedder.Embed(ctx, chunk.Text)
			if err != nil {
				return nil, apperrors.NewEmbeddingError(
					fmt.Errorf("embed chunk %d of %s: %w", chunk.Index, source, err))
			}

			// 向量与记录同一循环内成对追加，位置天然对齐
			vectors = append(vectors, vector)
			records = append(records, ChunkRecord{
				Text:     chunk.Text,
				Source:   source,
				Page:     chunk.Index / chunksPerPage,
				Position: len(records),
			})
		}

		logger.Info("document ingested",
			zap.String("file", source),
			zap.Int("total_chunks", len(records)))
	}

	if len(vectors) == 0 {
		return nil, apperrors.NewConfigurationError("all documents failed extraction, nothing to index")
	}

	index, err := BuildFlatIndex(p.embedder.Dimensions(), vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return NewIndexPair(index, records)
}

// IngestAndSave 摄取并原子落盘到索引目录
func (p *IngestionPipeline) IngestAndSave(ctx context.Context, sourceDir, indexDir string) (*IndexPair, error) {
	pair, err := p.IngestDirectory(ctx, sourceDir)
	if err != nil {
		return nil, err
	}
	if err := pair.Save(indexDir); err != nil {
		return nil, err
	}

	logger.Info("index pair persisted",
		zap.String("dir", indexDir),
		zap.Int("chunks", pair.Count()),
		zap.Int("dimension", pair.Dimension()))
	return pair, nil
}

// listSourceFiles 枚举目录下支持的文档，按文件名排序保证摄取顺序稳定
func (p *IngestionPipeline) listSourceFiles(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("cannot read source directory %s", sourceDir)).WithCause(err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if p.parser.Supports(entry.Name()) {
			files = append(files, filepath.Join(sourceDir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *IngestionPipeline) extractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewExtractionError(path, err)
	}
	defer f.Close()

	text, err := p.parser.ParseFile(f, filepath.Base(path))
	if err != nil {
		return "", apperrors.NewExtractionError(path, err)
	}
	if SanitizeText(text) == "" {
		return "", apperrors.NewExtractionError(path, fmt.Errorf("document produced no text"))
	}
	return text, nil
}
