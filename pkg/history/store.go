// Package history は生成したミームの履歴を保存します。
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shouni/gemini-meme-kit/pkg/domain"
)

// storageKey は履歴全体を1件として保存するキーです。
const storageKey = "cat_meme_history"

// Store は履歴を新しい順に保持し、Backend に JSON で保存します。
type Store struct {
	backend Backend

	mu sync.Mutex
}

// NewStore は backend を使う Store を作ります。
func NewStore(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &Store{backend: backend}, nil
}

// Append は result を先頭に追加して保存します。
// 容量を超えた場合は domain.ErrStorageFull を返し、保存済みの履歴は変更しません。
func (s *Store) Append(result domain.GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}

	next := append([]domain.GenerationResult{result}, items...)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("履歴のエンコードに失敗しました: %w", err)
	}
	if err := s.backend.Set(storageKey, data); err != nil {
		slog.Warn("履歴の保存に失敗しました", "id", result.ID, "count", len(next), "bytes", len(data), "error", err)
		return fmt.Errorf("履歴保存エラー: %w", err)
	}
	return nil
}

// LoadAll は保存済みの履歴を新しい順に返します。
func (s *Store) LoadAll() ([]domain.GenerationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Clear は履歴をすべて削除します。
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(storageKey); err != nil {
		return fmt.Errorf("履歴の削除に失敗しました: %w", err)
	}
	return nil
}

func (s *Store) load() ([]domain.GenerationResult, error) {
	data, ok, err := s.backend.Get(storageKey)
	if err != nil {
		return nil, fmt.Errorf("履歴の読み込みに失敗しました: %w", err)
	}
	if !ok {
		return []domain.GenerationResult{}, nil
	}

	var items []domain.GenerationResult
	if err := json.Unmarshal(data, &items); err != nil {
		// 解析できない履歴は空として扱う
		slog.Error("履歴の解析に失敗しました", "error", err)
		return []domain.GenerationResult{}, nil
	}
	return items, nil
}
