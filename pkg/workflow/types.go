package workflow

import (
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// RunRequest はストーリーから漫画を生成する1回の実行の入力です。
type RunRequest struct {
	RunID         string
	Story         string
	Style         string
	Characters    domain.Roster
	Locations     domain.Roster
	PanelTemplate string
	// Observer はこの実行のイベントだけを受け取ります。Options.Observer の後に呼ばれます。
	Observer Observer
}

// PanelResult は1コマの最終状態です。
type PanelResult struct {
	Panel  domain.Panel
	Status domain.GenerationStatus
	Err    error
}

// PageResult は1ページ分の結果です。
type PageResult struct {
	ID     string
	Layout domain.Layout
	Panels []PanelResult
}

// RunResult は実行全体の結果です。コマ単位の失敗はここに記録され、エラーとしては返りません。
type RunResult struct {
	RunID     string
	Plan      *domain.StoryboardPlan
	Pages     []PageResult
	Events    []domain.StatusEvent
	Completed int
	Total     int
	Canceled  bool
}

// Statuses はコマの状態を計画順に平坦化して返します。
func (r *RunResult) Statuses() []domain.GenerationStatus {
	var out []domain.GenerationStatus
	for _, p := range r.Pages {
		for _, pn := range p.Panels {
			out = append(out, pn.Status)
		}
	}
	return out
}

// Count は指定した状態のコマ数を返します。
func (r *RunResult) Count(status domain.GenerationStatus) int {
	n := 0
	for _, s := range r.Statuses() {
		if s == status {
			n++
		}
	}
	return n
}
