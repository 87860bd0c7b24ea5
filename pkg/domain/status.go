package domain

import "time"

// GenerationStatus はコマ単位の生成状態です。
type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusGenerating GenerationStatus = "generating"
	StatusDone       GenerationStatus = "done"
	StatusError      GenerationStatus = "error"
)

// Terminal は終端状態かどうかを返します。
func (s GenerationStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// CanTransition は状態遷移 pending -> generating -> {done, error} に従っているかを返します。
func (s GenerationStatus) CanTransition(to GenerationStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusGenerating
	case StatusGenerating:
		return to == StatusDone || to == StatusError
	default:
		return false
	}
}

// StatusEvent は1回の状態遷移を記録した不変のイベントです。
type StatusEvent struct {
	RunID      string           `json:"runId"`
	Seq        int              `json:"seq"`
	PageIndex  int              `json:"pageIndex"`
	PanelIndex int              `json:"panelIndex"`
	PanelID    string           `json:"panelId"`
	From       GenerationStatus `json:"from"`
	To         GenerationStatus `json:"to"`
	ImageRef   string           `json:"imageRef,omitempty"`
	Error      string           `json:"error,omitempty"`
	Completed  int              `json:"completed"`
	Total      int              `json:"total"`
	At         time.Time        `json:"at"`
}
