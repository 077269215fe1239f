package knowledge

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/studyhub/backend-go/internal/logger"
)

// PairHolder 持有当前生效的索引对，支持运行中热替换。
// 查询端通过Current()拿到某一刻的完整快照，替换不影响进行中的检索。
type PairHolder struct {
	mu   sync.RWMutex
	pair *IndexPair
}

// NewPairHolder 创建索引对持有器
func NewPairHolder(pair *IndexPair) *PairHolder {
	return &PairHolder{pair: pair}
}

// Current 返回当前索引对，未加载时返回nil
func (h *PairHolder) Current() *IndexPair {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pair
}

// Swap 替换为新的索引对
func (h *PairHolder) Swap(pair *IndexPair) {
	h.mu.Lock()
	h.pair = pair
	h.mu.Unlock()
}

// Reloader 监听索引目录，向量文件被替换后重新加载配对
type Reloader struct {
	holder   *PairHolder
	indexDir string
	watcher  *fsnotify.Watcher
	done     chan struct{}
	closed   sync.Once
}

// NewReloader 创建索引热加载器并开始监听
func NewReloader(holder *PairHolder, indexDir string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(indexDir); err != nil {
		watcher.Close()
		return nil, err
	}

	r := &Reloader{
		holder:   holder,
		indexDir: indexDir,
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	go r.loop()

	logger.Info("index reloader watching", zap.String("dir", indexDir))
	return r, nil
}

func (r *Reloader) loop() {
	// 落盘用rename替换，CREATE/RENAME都可能是新对就绪的信号
	vectorPath := filepath.Join(r.indexDir, VectorFileName)

	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Name != vectorPath {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			r.reload()
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("index watcher error", zap.Error(err))
		}
	}
}

func (r *Reloader) reload() {
	// 元数据先于向量文件落位，稍等让rename对完全就绪
	time.Sleep(100 * time.Millisecond)

	pair, err := LoadIndexPair(r.indexDir)
	if err != nil {
		logger.Error("index reload failed, keeping previous pair",
			zap.String("dir", r.indexDir),
			zap.Error(err))
		return
	}

	r.holder.Swap(pair)
	logger.Info("index pair reloaded",
		zap.Int("chunks", pair.Count()),
		zap.Int("dimension", pair.Dimension()))
}

// Close 停止监听
func (r *Reloader) Close() error {
	var err error
	r.closed.Do(func() {
		close(r.done)
		err = r.watcher.Close()
	})
	return err
}
