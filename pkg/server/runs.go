package server

import (
	"sort"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// 実行の状態
const (
	StateRunning  = "running"
	StateDone     = "done"
	StateFailed   = "failed"
	StateCanceled = "canceled"
)

type panelKey struct {
	page, panel int
}

// PanelView は API に返す1コマの状態です。
type PanelView struct {
	PageIndex  int                     `json:"pageIndex"`
	PanelIndex int                     `json:"panelIndex"`
	PanelID    string                  `json:"panelId"`
	Status     domain.GenerationStatus `json:"status"`
	ImageRef   string                  `json:"imageRef,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// RunSnapshot は GET /api/runs/{id} の応答です。
type RunSnapshot struct {
	RunID     string      `json:"runId"`
	State     string      `json:"state"`
	Done      bool        `json:"done"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	Error     string      `json:"error,omitempty"`
	Panels    []PanelView `json:"panels"`
}

// run は1回の実行のイベント履歴を保持し、購読者に変更を通知します。
type run struct {
	mu        sync.Mutex
	id        string
	state     string
	events    []domain.StatusEvent
	panels    map[panelKey]PanelView
	completed int
	total     int
	err       string
	changed   chan struct{}
}

func newRun(id string) *run {
	return &run{
		id:      id,
		state:   StateRunning,
		panels:  make(map[panelKey]PanelView),
		changed: make(chan struct{}),
	}
}

// notifyLocked は待機中の購読者を起こします。mu を保持した状態で呼びます。
func (r *run) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *run) observe(ev domain.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.completed = ev.Completed
	r.total = ev.Total
	r.panels[panelKey{ev.PageIndex, ev.PanelIndex}] = PanelView{
		PageIndex:  ev.PageIndex,
		PanelIndex: ev.PanelIndex,
		PanelID:    ev.PanelID,
		Status:     ev.To,
		ImageRef:   ev.ImageRef,
		Error:      ev.Error,
	}
	r.notifyLocked()
}

func (r *run) finish(res *workflow.RunResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil:
		r.state = StateFailed
		r.err = err.Error()
	case res.Canceled:
		r.state = StateCanceled
	default:
		r.state = StateDone
	}
	if res != nil {
		r.completed = res.Completed
		r.total = res.Total
		for pi, page := range res.Pages {
			for ni, pr := range page.Panels {
				view := PanelView{
					PageIndex:  pi,
					PanelIndex: ni,
					PanelID:    pr.Panel.ID,
					Status:     pr.Status,
					ImageRef:   pr.Panel.ImageRef,
				}
				if pr.Err != nil {
					view.Error = pr.Err.Error()
				}
				r.panels[panelKey{pi, ni}] = view
			}
		}
	}
	r.notifyLocked()
}

// since は seq 以降のイベント、次の変更通知チャネル、終了済みかどうかを返します。
func (r *run) since(seq int) ([]domain.StatusEvent, <-chan struct{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StatusEvent
	if seq < len(r.events) {
		out = make([]domain.StatusEvent, len(r.events)-seq)
		copy(out, r.events[seq:])
	}
	return out, r.changed, r.state != StateRunning
}

func (r *run) snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := RunSnapshot{
		RunID:     r.id,
		State:     r.state,
		Done:      r.state != StateRunning,
		Completed: r.completed,
		Total:     r.total,
		Error:     r.err,
		Panels:    make([]PanelView, 0, len(r.panels)),
	}
	for _, v := range r.panels {
		snap.Panels = append(snap.Panels, v)
	}
	sort.Slice(snap.Panels, func(i, j int) bool {
		a, b := snap.Panels[i], snap.Panels[j]
		if a.PageIndex != b.PageIndex {
			return a.PageIndex < b.PageIndex
		}
		return a.PanelIndex < b.PanelIndex
	})
	return snap
}

// registry は実行IDから実行状態を引く台帳です。
type registry struct {
	mu   sync.RWMutex
	runs map[string]*run
}

func newRegistry() *registry {
	return &registry{runs: make(map[string]*run)}
}

func (g *registry) add(r *run) {
	g.mu.Lock()
	g.runs[r.id] = r
	g.mu.Unlock()
}

func (g *registry) get(id string) (*run, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runs[id]
	return r, ok
}
