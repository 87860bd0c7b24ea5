package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func TestNewKey(t *testing.T) {
	re := regexp.MustCompile(`^img_\d+_[0-9a-f]{9}$`)
	a, b := NewKey(), NewKey()
	if !re.MatchString(a) {
		t.Errorf("キー形式が正しくないのだ: %s", a)
	}
	if a == b {
		t.Error("連続して生成したキーが重複しているのだ")
	}
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	img := &domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}

	key, err := s.Put(ctx, img)
	if err != nil {
		t.Fatalf("Put に失敗したのだ: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get に失敗したのだ: %v", err)
	}
	if got == nil || !bytes.Equal(got.Data, img.Data) || got.MIMEType != "image/png" {
		t.Errorf("保存した画像と一致しないのだ: %+v", got)
	}

	key2, err := s.Put(ctx, img)
	if err != nil {
		t.Fatalf("2回目の Put に失敗したのだ: %v", err)
	}
	if key2 == key {
		t.Error("同じ画像でも新しいキーが払い出されるはずなのだ")
	}

	missing, err := s.Get(ctx, "img_0_missing")
	if err != nil || missing != nil {
		t.Errorf("存在しないキーは nil, nil のはずなのだ: %v, %v", missing, err)
	}

	if _, err := s.Put(ctx, &domain.Image{}); err == nil {
		t.Error("空の画像はエラーになるはずなのだ")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "x"); err == nil {
		t.Error("Close 後の Get はエラーになるはずなのだ")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	img := &domain.Image{Data: []byte("abc"), MIMEType: "image/png"}
	key, _ := s.Put(ctx, img)
	img.Data[0] = 'z'

	got, _ := s.Get(ctx, key)
	if string(got.Data) != "abc" {
		t.Errorf("保存済みの画像が書き換えられてしまったのだ: %s", got.Data)
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore に失敗したのだ: %v", err)
	}
	exerciseStore(t, s)

	if _, err := s.Get(context.Background(), "../etc/passwd"); err == nil {
		t.Error("パス区切りを含むキーは拒否するはずなのだ")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("2ファイル保存されているはずなのだ: %d", len(entries))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("MemoryStore を期待したのだ: %T", s)
	}

	dir := t.TempDir()
	s, err = Open(ctx, "file://"+dir)
	if err != nil {
		t.Fatal(err)
	}
	fs, ok := s.(*FileStore)
	if !ok || fs.Dir() != dir {
		t.Errorf("FileStore(%s) を期待したのだ: %T", dir, s)
	}

	if _, err := Open(ctx, ""); err == nil {
		t.Error("空の URL はエラーになるはずなのだ")
	}
}

func TestRecordRoundTripKeepsDefaultMIME(t *testing.T) {
	raw, err := encodeRecord(&domain.Image{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	img, err := decodeRecord(raw)
	if err != nil {
		t.Fatal(err)
	}
	if img.MIMEType != domain.DefaultImageMIMEType {
		t.Errorf("既定の MIME タイプが入るはずなのだ: %s", img.MIMEType)
	}
}
