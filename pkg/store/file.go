package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

var (
	errClosed = errors.New("ブロブストアは既に閉じられています")
	keyRegex  = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// FileStore はディレクトリ配下に1キー1ファイルで画像レコードを保存します。
type FileStore struct {
	dir string
}

// NewFileStore はディレクトリを作成して FileStore を返します。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ブロブディレクトリの作成に失敗しました: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !keyRegex.MatchString(key) {
		return "", fmt.Errorf("不正なキーです: %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Put(ctx context.Context, img *domain.Image) (string, error) {
	raw, err := encodeRecord(img)
	if err != nil {
		return "", err
	}
	key := NewKey()
	p, err := s.path(key)
	if err != nil {
		return "", err
	}

	// O_EXCL で既存ファイルへの上書きを防ぐ
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrKeyExists
		}
		return "", fmt.Errorf("画像ファイルの作成に失敗しました: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("画像ファイルの書き込みに失敗しました: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("画像ファイルのクローズに失敗しました: %w", err)
	}
	return key, nil
}

func (s *FileStore) Get(ctx context.Context, key string) (*domain.Image, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("画像ファイルの読み込みに失敗しました: %w", err)
	}
	return decodeRecord(raw)
}

// Dir は保存先ディレクトリを返します。
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Close() error { return nil }
