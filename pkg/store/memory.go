package store

import (
	"context"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// MemoryStore はプロセス内に画像を保持するストアです。テストやサーバーの一時実行向けです。
type MemoryStore struct {
	mu     sync.RWMutex
	blobs  map[string]*domain.Image
	closed bool
}

// NewMemoryStore は空の MemoryStore を生成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*domain.Image)}
}

func (s *MemoryStore) Put(ctx context.Context, img *domain.Image) (string, error) {
	if err := validateImage(img); err != nil {
		return "", err
	}
	key := NewKey()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", errClosed
	}
	if _, ok := s.blobs[key]; ok {
		return "", ErrKeyExists
	}
	s.blobs[key] = img.Clone()
	return key, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*domain.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	img, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	return img.Clone(), nil
}

// Len は保存済みの画像数を返します。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
