package knowledge

import (
	"container/heap"
	"fmt"
	"sync"
)

// Neighbor 最近邻检索结果：向量在索引中的插入序位置与平方欧氏距离
type Neighbor struct {
	Position int
	Distance float32
}

// FlatIndex 平铺精确最近邻索引。向量按插入顺序存放，位置即与元数据
// 记录对齐的下标；构建后只追加，不修改已有项。
type FlatIndex struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
}

// NewFlatIndex 创建指定维度的空索引
func NewFlatIndex(dimension int) *FlatIndex {
	return &FlatIndex{dimension: dimension}
}

// BuildFlatIndex 从一批向量一次性构建索引（摄取路径）
func BuildFlatIndex(dimension int, vectors [][]float32) (*FlatIndex, error) {
	idx := NewFlatIndex(dimension)
	for i, v := range vectors {
		if _, err := idx.Add(v); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return idx, nil
}

// Add 追加一个向量，返回其插入序位置
func (idx *FlatIndex) Add(vector []float32) (int, error) {
	if len(vector) != idx.dimension {
		return -1, fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vector), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	stored := make([]float32, len(vector))
	copy(stored, vector)
	idx.vectors = append(idx.vectors, stored)
	return len(idx.vectors) - 1, nil
}

// Search 返回与查询向量最近的k个位置，按平方欧氏距离升序。
// 索引小于k时返回全部；负的哨兵位置被过滤。
func (idx *FlatIndex) Search(query []float32, k int) []Neighbor {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.vectors) == 0 {
		return nil
	}

	// 最大堆维护当前最近的k个候选，淘汰距离最大者
	h := &neighborHeap{}
	heap.Init(h)

	for pos, v := range idx.vectors {
		dist := squaredL2(query, v)
		if h.Len() < k {
			heap.Push(h, Neighbor{Position: pos, Distance: dist})
		} else if dist < (*h)[0].Distance {
			heap.Pop(h)
			heap.Push(h, Neighbor{Position: pos, Distance: dist})
		}
	}

	// 从堆中倒序取出，得到距离升序的结果
	results := make([]Neighbor, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(h).(Neighbor)
	}

	filtered := results[:0]
	for _, n := range results {
		if n.Position >= 0 {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

// Count 返回索引中的向量数
func (idx *FlatIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimension 返回索引的向量维度
func (idx *FlatIndex) Dimension() int {
	return idx.dimension
}

// Vector 返回指定位置向量的副本，位置越界返回nil
func (idx *FlatIndex) Vector(position int) []float32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if position < 0 || position >= len(idx.vectors) {
		return nil
	}
	out := make([]float32, idx.dimension)
	copy(out, idx.vectors[position])
	return out
}

// squaredL2 平方欧氏距离。构建与检索必须使用同一度量。
func squaredL2(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// neighborHeap 以距离为序的最大堆
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x interface{}) {
	*h = append(*h, x.(Neighbor))
}

func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
