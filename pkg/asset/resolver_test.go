package asset

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

type fakeGetter struct {
	mu     sync.Mutex
	images map[string]*domain.Image
	fail   map[string]bool
	calls  int
}

func (f *fakeGetter) Get(ctx context.Context, key string) (*domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[key] {
		return nil, errors.New("boom")
	}
	return f.images[key], nil
}

func TestResolver_Resolve(t *testing.T) {
	getter := &fakeGetter{
		images: map[string]*domain.Image{
			"k1": {Data: []byte("zephyr"), MIMEType: "image/png"},
			"k2": {Data: []byte("mara"), MIMEType: "image/jpeg"},
		},
		fail: map[string]bool{"k3": true},
	}
	assets := []domain.Asset{
		{ID: "c1", Name: "Zephyr", ImageRef: "k1"},
		{ID: "c2", Name: "Mara", ImageRef: "k2"},
		{ID: "c3", Name: "Broken", ImageRef: "k3"},
		{ID: "c4", Name: "Sketch"},
	}
	r := NewResolver(getter, nil)

	got, err := r.Resolve(context.Background(), []string{"c2", "gone", "c1", "c3", "c4", "c1"}, assets)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	wantNames := []string{"Mara", "Zephyr", "Broken", "Sketch"}
	if len(got) != len(wantNames) {
		t.Fatalf("期待値 %d 件, 実際の値 %d 件", len(wantNames), len(got))
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Errorf("[%d] 期待値 '%s', 実際の値 '%s'", i, name, got[i].Name)
		}
	}
	if got[0].Image == nil || string(got[0].Image.Data) != "mara" {
		t.Errorf("Mara の画像が解決されていないのだ: %+v", got[0].Image)
	}
	if got[2].Image != nil {
		t.Error("取得に失敗した画像は nil のはずなのだ")
	}
	if got[3].Image != nil {
		t.Error("画像未生成のアセットは nil のはずなのだ")
	}
}

func TestResolver_CachesImages(t *testing.T) {
	getter := &fakeGetter{images: map[string]*domain.Image{"k1": {Data: []byte("z")}}}
	assets := []domain.Asset{{ID: "c1", Name: "Zephyr", ImageRef: "k1"}}
	r := NewResolver(getter, nil)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), []string{"c1"}, assets); err != nil {
			t.Fatal(err)
		}
	}
	if r.Fetches() != 1 {
		t.Errorf("ストアへの取得は1回のはずなのだ: %d", r.Fetches())
	}
}

func TestResolver_ReturnsSnapshots(t *testing.T) {
	getter := &fakeGetter{images: map[string]*domain.Image{"k1": {Data: []byte("abc")}}}
	assets := []domain.Asset{{ID: "c1", ImageRef: "k1"}}
	r := NewResolver(getter, nil)

	first, _ := r.Resolve(context.Background(), []string{"c1"}, assets)
	first[0].Image.Data[0] = 'x'

	second, _ := r.Resolve(context.Background(), []string{"c1"}, assets)
	if string(second[0].Image.Data) != "abc" {
		t.Errorf("キャッシュが呼び出し側の変更で汚れてしまったのだ: %s", second[0].Image.Data)
	}
}

func TestResolver_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	getter := &fakeGetter{fail: map[string]bool{"k1": true}}
	r := NewResolver(getter, nil)
	_, err := r.Resolve(ctx, []string{"c1"}, []domain.Asset{{ID: "c1", ImageRef: "k1"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("context.Canceled を期待したのだ: %v", err)
	}
}
