package domain

import (
	"fmt"
	"strings"
)

// Layout はページのコマ割りテンプレートを表すタグです。
type Layout string

const (
	Layout1x1          Layout = "1x1"
	Layout1x2          Layout = "1x2"
	Layout2x1          Layout = "2x1"
	Layout2x2          Layout = "2x2"
	Layout3x1          Layout = "3x1"
	LayoutDominantTop  Layout = "dominant-top"
	LayoutDominantLeft Layout = "dominant-left"
	LayoutTimelineVert Layout = "timeline-vert"
	LayoutFourVaried   Layout = "four-varied"
)

// Slot はグリッド内の1コマの占有範囲です。
type Slot struct {
	ColSpan int `json:"colSpan" yaml:"colSpan"`
	RowSpan int `json:"rowSpan" yaml:"rowSpan"`
}

// Geometry はレイアウトのグリッド寸法とコマごとの占有範囲です。
type Geometry struct {
	Cols  int    `json:"cols" yaml:"cols"`
	Rows  int    `json:"rows" yaml:"rows"`
	Slots []Slot `json:"slots" yaml:"slots"`
}

func cells(n int) []Slot {
	slots := make([]Slot, n)
	for i := range slots {
		slots[i] = span(1, 1)
	}
	return slots
}

func span(cols, rows int) Slot {
	return Slot{ColSpan: cols, RowSpan: rows}
}

var layoutGeometries = map[Layout]Geometry{
	Layout1x1:          {Cols: 1, Rows: 1, Slots: cells(1)},
	Layout1x2:          {Cols: 2, Rows: 1, Slots: cells(2)},
	Layout2x1:          {Cols: 1, Rows: 2, Slots: cells(2)},
	Layout2x2:          {Cols: 2, Rows: 2, Slots: cells(4)},
	Layout3x1:          {Cols: 1, Rows: 3, Slots: cells(3)},
	LayoutDominantTop:  {Cols: 2, Rows: 2, Slots: []Slot{span(2, 1), span(1, 1), span(1, 1)}},
	LayoutDominantLeft: {Cols: 2, Rows: 2, Slots: []Slot{span(1, 2), span(1, 1), span(1, 1)}},
	LayoutTimelineVert: {Cols: 1, Rows: 3, Slots: cells(3)},
	LayoutFourVaried:   {Cols: 2, Rows: 3, Slots: []Slot{span(1, 2), span(1, 1), span(1, 1), span(2, 1)}},
}

// orderedLayouts は列挙順を固定するためのリストです。
var orderedLayouts = []Layout{
	Layout1x1, Layout1x2, Layout2x1, Layout2x2, Layout3x1,
	LayoutDominantTop, LayoutDominantLeft, LayoutTimelineVert, LayoutFourVaried,
}

// AllLayouts は既知のレイアウトタグを定義順に返します。
func AllLayouts() []Layout {
	out := make([]Layout, len(orderedLayouts))
	copy(out, orderedLayouts)
	return out
}

// LayoutNames はレイアウトタグを文字列スライスで返します。スキーマの enum に使います。
func LayoutNames() []string {
	names := make([]string, len(orderedLayouts))
	for i, l := range orderedLayouts {
		names[i] = string(l)
	}
	return names
}

// ParseLayout は文字列をレイアウトタグに変換します。
func ParseLayout(s string) (Layout, error) {
	l := Layout(strings.TrimSpace(s))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
	return l, nil
}

// Valid は既知のレイアウトかどうかを返します。
func (l Layout) Valid() bool {
	_, ok := layoutGeometries[l]
	return ok
}

// PanelCount はレイアウトが規定するコマ数を返します。未知のタグは 0 です。
func (l Layout) PanelCount() int {
	return len(layoutGeometries[l].Slots)
}

// Geometry はレイアウトのグリッド定義を返します。
func (l Layout) Geometry() (Geometry, bool) {
	g, ok := layoutGeometries[l]
	if !ok {
		return Geometry{}, false
	}
	slots := make([]Slot, len(g.Slots))
	copy(slots, g.Slots)
	g.Slots = slots
	return g, true
}

// LayoutForCount は指定コマ数を持つ最初の基本レイアウトを返します。
func LayoutForCount(n int) (Layout, bool) {
	for _, l := range orderedLayouts {
		if l.PanelCount() == n {
			return l, true
		}
	}
	return "", false
}
