package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// recorder は状態遷移を検証し、不変のイベントとして追記します。
type recorder struct {
	mu        sync.Mutex
	runID     string
	events    []domain.StatusEvent
	completed int
	total     int
	observer  Observer
	now       func() time.Time
}

func newRecorder(runID string, total int, observer Observer) *recorder {
	return &recorder{runID: runID, total: total, observer: observer, now: time.Now}
}

// transition は pr の状態を to に進めてイベントを記録します。
func (r *recorder) transition(pageIdx, panelIdx int, pr *PanelResult, to domain.GenerationStatus, cause error) error {
	from := pr.Status
	if !from.CanTransition(to) {
		return fmt.Errorf("不正な状態遷移です: %s -> %s (page=%d, panel=%d)", from, to, pageIdx, panelIdx)
	}
	pr.Status = to
	pr.Err = cause

	r.mu.Lock()
	if to.Terminal() {
		r.completed++
	}
	ev := domain.StatusEvent{
		RunID:      r.runID,
		Seq:        len(r.events),
		PageIndex:  pageIdx,
		PanelIndex: panelIdx,
		PanelID:    pr.Panel.ID,
		From:       from,
		To:         to,
		ImageRef:   pr.Panel.ImageRef,
		Completed:  r.completed,
		Total:      r.total,
		At:         r.now(),
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	r.events = append(r.events, ev)
	observer := r.observer
	r.mu.Unlock()

	if observer != nil {
		observer(ev)
	}
	return nil
}

func (r *recorder) snapshot() ([]domain.StatusEvent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StatusEvent, len(r.events))
	copy(out, r.events)
	return out, r.completed
}
