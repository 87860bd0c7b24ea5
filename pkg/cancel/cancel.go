// Package cancel は実行単位の協調キャンセルフラグを提供します。
// フラグはコマの境界でのみ確認され、実行中の生成呼び出しは中断しません。
package cancel

import (
	"context"
	"sync"
)

// Flag は実行IDごとのキャンセル要求を保持します。
type Flag interface {
	Cancel(ctx context.Context, runID string) error
	Canceled(ctx context.Context, runID string) bool
}

// MemoryFlag はプロセス内でキャンセル要求を共有します。
type MemoryFlag struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewMemoryFlag() *MemoryFlag {
	return &MemoryFlag{ids: make(map[string]struct{})}
}

func (f *MemoryFlag) Cancel(ctx context.Context, runID string) error {
	f.mu.Lock()
	f.ids[runID] = struct{}{}
	f.mu.Unlock()
	return nil
}

func (f *MemoryFlag) Canceled(ctx context.Context, runID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ids[runID]
	return ok
}
