package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/studyhub/backend-go/internal/config"
	"github.com/studyhub/backend-go/internal/knowledge"
	"github.com/studyhub/backend-go/internal/logger"
)

// 离线摄取：解析指定目录下的学习指南，构建并落盘索引对。
// 运行中的服务会通过文件监听自动加载新索引。
func main() {
	sourceDir := flag.String("dir", "", "directory of guide documents (defaults to configured source dir)")
	indexDir := flag.String("out", "", "output directory for the index pair (defaults to configured index dir)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	if err := logger.InitLogger(); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := config.LoadConfig(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	cfg := config.AppConfig

	if *sourceDir == "" {
		*sourceDir = cfg.Knowledge.SourceDir
	}
	if *indexDir == "" {
		*indexDir = cfg.Retrieval.IndexDir
	}

	embedder := knowledge.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel)
	if !embedder.Ready() {
		logger.Fatal("OPENAI_API_KEY is required for ingestion")
	}

	pipeline := knowledge.NewIngestionPipeline(
		knowledge.NewFileParserManager(),
		knowledge.NewChunker(cfg.Knowledge.ChunkSize),
		embedder,
	)

	pair, err := pipeline.IngestAndSave(context.Background(), *sourceDir, *indexDir)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}

	logger.Info("ingestion complete",
		zap.String("source", *sourceDir),
		zap.String("index", *indexDir),
		zap.Int("chunks", pair.Count()))
}
