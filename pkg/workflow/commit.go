package workflow

import (
	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// CommitPages は done のコマだけを残したページを返します。
// done が1つも無いページは捨てます。コマが欠けたページは残りのコマ数に合うレイアウトへ差し替えます。
// ページ番号は Project.AppendPages で振り直す前提で 0 のままです。
func CommitPages(result *RunResult) []domain.ComicPage {
	if result == nil {
		return nil
	}
	var pages []domain.ComicPage
	for _, pr := range result.Pages {
		var panels []domain.Panel
		for _, pn := range pr.Panels {
			if pn.Status == domain.StatusDone && pn.Panel.ImageRef != "" {
				panels = append(panels, pn.Panel)
			}
		}
		if len(panels) == 0 {
			continue
		}

		layout := pr.Layout
		if layout.PanelCount() != len(panels) {
			if l, ok := domain.LayoutForCount(len(panels)); ok {
				layout = l
			}
		}
		id := pr.ID
		if id == "" {
			id = uuid.NewString()
		}
		pages = append(pages, domain.ComicPage{ID: id, Layout: layout, Panels: panels})
	}
	return pages
}
