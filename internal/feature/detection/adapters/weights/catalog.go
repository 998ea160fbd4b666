// Package weights はモデル重みファイルのカタログ実装を提供します。
package weights

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"logodetect_backend/internal/feature/detection/domain/entity"
	"logodetect_backend/internal/feature/detection/usecase"
)

// DirCatalog は重みディレクトリをスキャンして得たカタログです。
type DirCatalog struct {
	dir     string
	pattern string

	mu      sync.RWMutex
	weights []entity.WeightInfo
}

var _ usecase.WeightCatalog = (*DirCatalog)(nil)

// NewDirCatalog はdir配下のpatternに一致するファイルをスキャンしてカタログを生成します。
// ディレクトリが存在しない場合は空のカタログを返します。
func NewDirCatalog(dir, pattern string) (*DirCatalog, error) {
	c := &DirCatalog{dir: dir, pattern: pattern}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh は重みディレクトリを再スキャンします。
func (c *DirCatalog) Refresh() error {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		slog.Error("重みディレクトリが見つかりません", "dir", c.dir)
		c.set(nil)
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(c.dir, c.pattern))
	if err != nil {
		return fmt.Errorf("invalid weights pattern %q: %w", c.pattern, err)
	}
	sort.Strings(matches)

	found := make([]entity.WeightInfo, 0, len(matches))
	for _, path := range matches {
		st, err := os.Stat(path)
		if err != nil {
			slog.Error("重みファイルの読み込みに失敗", "path", path, "error", err)
			continue
		}
		if st.IsDir() {
			continue
		}
		found = append(found, entity.WeightInfo{
			Name:        filepath.Base(path),
			Path:        path,
			Size:        st.Size(),
			Description: fmt.Sprintf("YOLO model (%s)", FormatSize(st.Size())),
		})
		slog.Info("重みファイルを検出", "name", filepath.Base(path), "size", FormatSize(st.Size()))
	}
	c.set(found)
	return nil
}

func (c *DirCatalog) set(w []entity.WeightInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights = w
}

// List はカタログのコピーを返します。
func (c *DirCatalog) List() []entity.WeightInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.WeightInfo, len(c.weights))
	copy(out, c.weights)
	return out
}

// Find は名前で重みを検索します。
func (c *DirCatalog) Find(name string) (entity.WeightInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.weights {
		if w.Name == name {
			return w, true
		}
	}
	return entity.WeightInfo{}, false
}

// StaticCatalog は固定の重み一覧です。クラウドAPIのように重みファイルを持たないエンジンで使用します。
type StaticCatalog []entity.WeightInfo

var _ usecase.WeightCatalog = StaticCatalog(nil)

// List はカタログを返します。
func (s StaticCatalog) List() []entity.WeightInfo {
	out := make([]entity.WeightInfo, len(s))
	copy(out, s)
	return out
}

// Find は名前で重みを検索します。
func (s StaticCatalog) Find(name string) (entity.WeightInfo, bool) {
	for _, w := range s {
		if w.Name == name {
			return w, true
		}
	}
	return entity.WeightInfo{}, false
}

// FormatSize はバイト数を "12.3MB" 形式に整形します（1024単位、GBが上限）。
func FormatSize(size int64) string {
	if size == 0 {
		return "0B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	v := float64(size)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", v, units[i])
}
