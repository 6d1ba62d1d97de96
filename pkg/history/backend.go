package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// DefaultCapacity はブラウザの localStorage と同程度の保存上限 (5MiB) です。
const DefaultCapacity = 5 << 20

// Backend は容量上限付きのキーバリューストアです。
// Set は値が容量を超える場合に domain.ErrStorageFull を返します。
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

func checkCapacity(capacity int, value []byte) error {
	if capacity > 0 && len(value) > capacity {
		return fmt.Errorf("%w: %d bytes exceeds capacity %d", domain.ErrStorageFull, len(value), capacity)
	}
	return nil
}

// MemoryBackend はプロセス内のマップに保存する Backend です。
type MemoryBackend struct {
	capacity int

	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend は capacity バイトまで保存できる MemoryBackend を作ります。0 以下は無制限です。
func NewMemoryBackend(capacity int) *MemoryBackend {
	return &MemoryBackend{capacity: capacity, data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *MemoryBackend) Set(key string, value []byte) error {
	if err := checkCapacity(b.capacity, value); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// FileBackend はキーごとに dir/<key>.json へ保存する Backend です。
type FileBackend struct {
	dir      string
	capacity int
}

// NewFileBackend は dir 配下に保存する FileBackend を作ります。
func NewFileBackend(dir string, capacity int) (*FileBackend, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("履歴ディレクトリの作成に失敗しました: %w", err)
	}
	return &FileBackend{dir: dir, capacity: capacity}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set は一時ファイルに書いてから置き換えるため、途中で失敗しても既存の値は壊れません。
func (b *FileBackend) Set(key string, value []byte) error {
	if err := checkCapacity(b.capacity, value); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path(key))
}

func (b *FileBackend) Delete(key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
