package knowledge

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	apperrors "github.com/studyhub/backend-go/internal/errors"
	"github.com/studyhub/backend-go/internal/logger"
	"go.uber.org/zap"
)

// ChunkRecord 分块元数据记录，与索引中同位置的向量一一对应
type ChunkRecord struct {
	Text     string `json:"text"`
	Source   string `json:"source"`
	Page     int    `json:"page"`
	Position int    `json:"position"`
}

// RetrievedChunk 检索命中的分块及其距离
type RetrievedChunk struct {
	Text     string
	Source   string
	Page     int
	Position int
	Distance float32
}

// 向量文件头（v1）：
//   0..7   magic "SHVEC001"
//   8..15  dim (uint64 LE)
//   16..23 count (uint64 LE)
//   24..31 stamp (uint64 LE，与元数据文件配对校验)
const vectorHeaderSize = 32

var vectorFileMagic = [8]byte{'S', 'H', 'V', 'E', 'C', '0', '0', '1'}

const (
	VectorFileName   = "vectors.bin"
	MetadataFileName = "metadata.db"
)

var (
	bucketChunks   = []byte("chunks")
	bucketManifest = []byte("manifest")

	manifestKeyStamp     = []byte("stamp")
	manifestKeyCount     = []byte("count")
	manifestKeyDimension = []byte("dimension")
)

// IndexPair 持久化索引对：平铺向量索引与按位置对齐的元数据序列。
// 构建后只读，可被多个查询并发共享。
type IndexPair struct {
	index   *FlatIndex
	records []ChunkRecord
	stamp   uint64
}

// NewIndexPair 从已对齐的索引与记录构造配对
func NewIndexPair(index *FlatIndex, records []ChunkRecord) (*IndexPair, error) {
	if index == nil {
		return nil, apperrors.NewConfigurationError("index is nil")
	}
	if index.Count() != len(records) {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("index/metadata misaligned: %d vectors, %d records", index.Count(), len(records)))
	}
	return &IndexPair{
		index:   index,
		records: records,
		stamp:   uint64(time.Now().UnixNano()),
	}, nil
}

// Count 返回配对中的分块数
func (p *IndexPair) Count() int {
	return len(p.records)
}

// Dimension 返回向量维度
func (p *IndexPair) Dimension() int {
	return p.index.Dimension()
}

// Record 返回指定位置的元数据记录副本，越界返回false
func (p *IndexPair) Record(position int) (ChunkRecord, bool) {
	if position < 0 || position >= len(p.records) {
		return ChunkRecord{}, false
	}
	return p.records[position], true
}

// Retrieve 检索最近的k个分块并关联元数据。
// 位置越界说明索引/元数据错位，静默丢弃该命中，其余结果仍然有效。
func (p *IndexPair) Retrieve(query []float32, k int) []RetrievedChunk {
	neighbors := p.index.Search(query, k)

	chunks := make([]RetrievedChunk, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= len(p.records) {
			logger.Warn("dropping retrieval hit with out-of-range position",
				zap.Int("position", n.Position),
				zap.Int("records", len(p.records)))
			continue
		}
		rec := p.records[n.Position]
		chunks = append(chunks, RetrievedChunk{
			Text:     rec.Text,
			Source:   rec.Source,
			Page:     rec.Page,
			Position: n.Position,
			Distance: n.Distance,
		})
	}
	return chunks
}

// Save 将索引对写入目录。两个文件先写临时文件再rename，
// 保证查询端读到的始终是完整的一对；重复Save整体替换旧对。
func (p *IndexPair) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	vectorPath := filepath.Join(dir, VectorFileName)
	metadataPath := filepath.Join(dir, MetadataFileName)

	if err := p.writeVectorFile(vectorPath + ".tmp"); err != nil {
		return err
	}
	if err := p.writeMetadataFile(metadataPath + ".tmp"); err != nil {
		os.Remove(vectorPath + ".tmp")
		return err
	}

	// 先换元数据，后换向量：reload以向量文件变更为触发点
	if err := os.Rename(metadataPath+".tmp", metadataPath); err != nil {
		return fmt.Errorf("swap metadata file: %w", err)
	}
	if err := os.Rename(vectorPath+".tmp", vectorPath); err != nil {
		return fmt.Errorf("swap vector file: %w", err)
	}

	return nil
}

func (p *IndexPair) writeVectorFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	header := make([]byte, vectorHeaderSize)
	copy(header[:8], vectorFileMagic[:])
	binary.LittleEndian.PutUint64(header[8:16], uint64(p.index.Dimension()))
	binary.LittleEndian.PutUint64(header[16:24], uint64(p.index.Count()))
	binary.LittleEndian.PutUint64(header[24:32], p.stamp)
	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, 4)
	for pos := 0; pos < p.index.Count(); pos++ {
		for _, v := range p.index.Vector(pos) {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

func (p *IndexPair) writeMetadataFile(path string) error {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		chunks, err := tx.CreateBucketIfNotExists(bucketChunks)
		if err != nil {
			return err
		}
		manifest, err := tx.CreateBucketIfNotExists(bucketManifest)
		if err != nil {
			return err
		}

		for _, rec := range p.records {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := chunks.Put(positionKey(rec.Position), data); err != nil {
				return err
			}
		}

		if err := manifest.Put(manifestKeyStamp, uint64Bytes(p.stamp)); err != nil {
			return err
		}
		if err := manifest.Put(manifestKeyCount, uint64Bytes(uint64(len(p.records)))); err != nil {
			return err
		}
		return manifest.Put(manifestKeyDimension, uint64Bytes(uint64(p.index.Dimension())))
	})
}

// LoadIndexPair 从目录加载索引对。两个文件必须同时存在且相互匹配，
// 任一缺失或计数/配对戳不一致都是致命配置错误。
func LoadIndexPair(dir string) (*IndexPair, error) {
	vectorPath := filepath.Join(dir, VectorFileName)
	metadataPath := filepath.Join(dir, MetadataFileName)

	if _, err := os.Stat(vectorPath); err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("vector index file missing: %s", vectorPath)).WithCause(err)
	}
	if _, err := os.Stat(metadataPath); err != nil {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("metadata file missing: %s", metadataPath)).WithCause(err)
	}

	index, vectorStamp, err := readVectorFile(vectorPath)
	if err != nil {
		return nil, err
	}

	records, metaStamp, err := readMetadataFile(metadataPath)
	if err != nil {
		return nil, err
	}

	if vectorStamp != metaStamp {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("index/metadata pair mismatch: vector stamp %d, metadata stamp %d", vectorStamp, metaStamp))
	}
	if index.Count() != len(records) {
		return nil, apperrors.NewConfigurationError(
			fmt.Sprintf("index/metadata pair misaligned: %d vectors, %d records", index.Count(), len(records)))
	}

	return &IndexPair{index: index, records: records, stamp: vectorStamp}, nil
}

func readVectorFile(path string) (*FlatIndex, uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, apperrors.NewConfigurationError("failed to read vector file").WithCause(err)
	}
	if len(data) < vectorHeaderSize {
		return nil, 0, apperrors.NewConfigurationError("vector file too small for header")
	}

	var magic [8]byte
	copy(magic[:], data[:8])
	if !bytes.Equal(magic[:], vectorFileMagic[:]) {
		return nil, 0, apperrors.NewConfigurationError("invalid vector file header (magic mismatch)")
	}

	dim := int(binary.LittleEndian.Uint64(data[8:16]))
	count := int(binary.LittleEndian.Uint64(data[16:24]))
	stamp := binary.LittleEndian.Uint64(data[24:32])
	if dim <= 0 {
		return nil, 0, apperrors.NewConfigurationError("invalid vector file header (dim<=0)")
	}

	expected := vectorHeaderSize + count*dim*4
	if len(data) != expected {
		return nil, 0, apperrors.NewConfigurationError(
			fmt.Sprintf("vector file truncated: %d bytes, want %d", len(data), expected))
	}

	index := NewFlatIndex(dim)
	offset := vectorHeaderSize
	vec := make([]float32, dim)
	for i := 0; i < count; i++ {
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset : offset+4]))
			offset += 4
		}
		if _, err := index.Add(vec); err != nil {
			return nil, 0, apperrors.NewConfigurationError("failed to rebuild index").WithCause(err)
		}
	}

	return index, stamp, nil
}

func readMetadataFile(path string) ([]ChunkRecord, uint64, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, 0, apperrors.NewConfigurationError("failed to open metadata file").WithCause(err)
	}
	defer db.Close()

	var records []ChunkRecord
	var stamp uint64

	err = db.View(func(tx *bbolt.Tx) error {
		manifest := tx.Bucket(bucketManifest)
		chunks := tx.Bucket(bucketChunks)
		if manifest == nil || chunks == nil {
			return fmt.Errorf("metadata buckets missing")
		}

		stampData := manifest.Get(manifestKeyStamp)
		countData := manifest.Get(manifestKeyCount)
		if stampData == nil || countData == nil {
			return fmt.Errorf("metadata manifest incomplete")
		}
		stamp = binary.LittleEndian.Uint64(stampData)
		count := int(binary.LittleEndian.Uint64(countData))

		records = make([]ChunkRecord, count)
		for pos := 0; pos < count; pos++ {
			data := chunks.Get(positionKey(pos))
			if data == nil {
				return fmt.Errorf("metadata record %d missing", pos)
			}
			if err := json.Unmarshal(data, &records[pos]); err != nil {
				return fmt.Errorf("metadata record %d corrupt: %w", pos, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, apperrors.NewConfigurationError("failed to load metadata").WithCause(err)
	}

	return records, stamp, nil
}

func positionKey(position int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(position))
	return key
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
