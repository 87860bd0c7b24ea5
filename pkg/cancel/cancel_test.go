package cancel

import (
	"context"
	"testing"
)

func TestMemoryFlag(t *testing.T) {
	ctx := context.Background()
	f := NewMemoryFlag()

	if f.Canceled(ctx, "run-1") {
		t.Fatal("初期状態でキャンセル済みになっているのだ")
	}
	if err := f.Cancel(ctx, "run-1"); err != nil {
		t.Fatal(err)
	}
	if !f.Canceled(ctx, "run-1") {
		t.Error("キャンセルが反映されていないのだ")
	}
	if f.Canceled(ctx, "run-2") {
		t.Error("別の実行IDまでキャンセルされているのだ")
	}
}

func TestKey(t *testing.T) {
	if got := Key("abc"); got != "comic:cancel:abc" {
		t.Errorf("期待値 'comic:cancel:abc', 実際の値 '%s'", got)
	}
}
