package knowledge

import (
	"strings"
)

// Chunk 表示分块后的文本结构
type Chunk struct {
	Index int
	Text  string
}

// Chunker 文本分块器：按空白分词，累积到阈值词数后切分，不重叠
type Chunker struct {
	chunkSize int
}

// NewChunker 创建分块器，chunkSize为每块的词数上限
func NewChunker(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Chunker{chunkSize: chunkSize}
}

// Split 将文本切分为多个chunk。结果确定：相同输入与大小产出相同分块序列。
// 末尾不足一块的残余词仍然作为最后一块输出；空输入返回nil。
func (c *Chunker) Split(text string) []Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []Chunk
	for start := 0; start < len(words); start += c.chunkSize {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
		})
	}

	return chunks
}

// ChunkSize 返回配置的每块词数
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}
