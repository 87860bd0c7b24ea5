package publisher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OutputWriter はデータを出力先に保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, r io.Reader, contentType string) error
}

// LocalWriter はローカルファイルシステムに書き出す OutputWriter です。
type LocalWriter struct{}

// Write は親ディレクトリを作成してからファイルを書き出します。
func (LocalWriter) Write(ctx context.Context, path string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ファイルの作成に失敗しました: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("ファイルの書き込みに失敗しました: %w", err)
	}
	return f.Close()
}
