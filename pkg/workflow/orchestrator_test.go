package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/store"
)

func newTestOrchestrator(planner Planner, renderer PanelRenderer, bs BlobStore, opts Options) *Orchestrator {
	return NewOrchestrator(planner, renderer, passResolver{}, bs, opts)
}

func previousData(req generator.PanelRequest) string {
	if req.Previous == nil {
		return ""
	}
	return string(req.Previous.Data)
}

func TestOrchestrator_Continuity(t *testing.T) {
	t.Run("ページ内では直前のコマを引き継ぎ、ページ境界でリセットする", func(t *testing.T) {
		renderer := &fakeRenderer{}
		planner := &fakePlanner{plan: planOf(
			pageOf(domain.Layout1x2, "A", "B"),
			pageOf(domain.Layout1x2, "C", "D"),
		)}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

		res, err := o.Run(context.Background(), RunRequest{Story: "story"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if res.Count(domain.StatusDone) != 4 {
			t.Fatalf("期待値 4 コマ done, 実際の値 %d", res.Count(domain.StatusDone))
		}

		want := []string{"", "img:A", "", "img:C"}
		for i, req := range renderer.requests {
			if got := previousData(req); got != want[i] {
				t.Errorf("[%d] 直前画像 期待値 '%s', 実際の値 '%s'", i, want[i], got)
			}
		}
	})

	t.Run("失敗したコマの次は直前画像なしで描画する", func(t *testing.T) {
		renderer := &fakeRenderer{fail: map[string]bool{"P2": true}}
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout3x1, "P1", "P2", "P3"))}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

		res, err := o.Run(context.Background(), RunRequest{Story: "story"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got := previousData(renderer.requests[1]); got != "img:P1" {
			t.Errorf("P2 の直前画像 期待値 'img:P1', 実際の値 '%s'", got)
		}
		if got := previousData(renderer.requests[2]); got != "" {
			t.Errorf("P3 は直前画像なしであるべきなのだ: '%s'", got)
		}

		want := []domain.GenerationStatus{domain.StatusDone, domain.StatusError, domain.StatusDone}
		got := res.Statuses()
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("[%d] 期待値 %s, 実際の値 %s", i, want[i], got[i])
			}
		}
		if !domain.IsRenderError(res.Pages[0].Panels[1].Err) {
			t.Errorf("RenderError が記録されるべきなのだ: %v", res.Pages[0].Panels[1].Err)
		}
		if res.Pages[0].Panels[1].Panel.ImageRef != "" {
			t.Error("失敗したコマに画像参照が残っているのだ")
		}
	})
}

func TestOrchestrator_FailuresDoNotAbort(t *testing.T) {
	renderer := &fakeRenderer{fail: map[string]bool{"B": true}}
	planner := &fakePlanner{plan: planOf(
		pageOf(domain.Layout2x2, "A", "B", "C", "D"),
		pageOf(domain.Layout1x1, "E"),
	)}
	o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

	res, err := o.Run(context.Background(), RunRequest{Story: "story"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if res.Count(domain.StatusDone) != 4 || res.Count(domain.StatusError) != 1 {
		t.Errorf("期待値 done=4 error=1, 実際の値 done=%d error=%d", res.Count(domain.StatusDone), res.Count(domain.StatusError))
	}
	if res.Completed != res.Total || res.Total != 5 {
		t.Errorf("進捗 期待値 5/5, 実際の値 %d/%d", res.Completed, res.Total)
	}
	if len(renderer.requests) != 5 {
		t.Errorf("全コマが描画されるべきなのだ: %d", len(renderer.requests))
	}
}

func TestOrchestrator_StoreFailure(t *testing.T) {
	bs := newFakeStore()
	bs.failPut[1] = true
	renderer := &fakeRenderer{}
	planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x2, "A", "B"))}
	o := newTestOrchestrator(planner, renderer, bs, Options{})

	res, err := o.Run(context.Background(), RunRequest{Story: "story"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	first := res.Pages[0].Panels[0]
	if first.Status != domain.StatusError {
		t.Errorf("保存に失敗したコマは error であるべきなのだ: %s", first.Status)
	}
	if !domain.IsStoreError(first.Err) {
		t.Errorf("StoreError が記録されるべきなのだ: %v", first.Err)
	}
	if got := previousData(renderer.requests[1]); got != "" {
		t.Errorf("保存失敗後は直前画像を引き継がないのだ: '%s'", got)
	}
	if res.Pages[0].Panels[1].Status != domain.StatusDone {
		t.Errorf("2コマ目は done であるべきなのだ: %s", res.Pages[0].Panels[1].Status)
	}
}

func TestOrchestrator_Cancel(t *testing.T) {
	t.Run("キャンセルフラグが立つと残りのコマは pending のまま", func(t *testing.T) {
		flag := cancel.NewMemoryFlag()
		renderer := &fakeRenderer{}
		renderer.onRender = func(req generator.PanelRequest) {
			if req.SceneDescription == "A" {
				_ = flag.Cancel(context.Background(), "run-1")
			}
		}
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout3x1, "A", "B", "C"))}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{Canceler: flag})

		res, err := o.Run(context.Background(), RunRequest{RunID: "run-1", Story: "story"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if !res.Canceled {
			t.Error("Canceled が true であるべきなのだ")
		}
		want := []domain.GenerationStatus{domain.StatusDone, domain.StatusPending, domain.StatusPending}
		for i, s := range res.Statuses() {
			if s != want[i] {
				t.Errorf("[%d] 期待値 %s, 実際の値 %s", i, want[i], s)
			}
		}
		if len(renderer.requests) != 1 {
			t.Errorf("描画呼び出し 期待値 1, 実際の値 %d", len(renderer.requests))
		}
	})

	t.Run("コンテキストのキャンセルは実行中のコマを中断しない", func(t *testing.T) {
		ctx, cancelFn := context.WithCancel(context.Background())
		defer cancelFn()
		renderer := &fakeRenderer{}
		renderer.onRender = func(req generator.PanelRequest) { cancelFn() }
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x2, "A", "B"))}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

		res, err := o.Run(ctx, RunRequest{Story: "story"})
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if res.Pages[0].Panels[0].Status != domain.StatusDone {
			t.Errorf("実行中のコマは done まで進むべきなのだ: %s", res.Pages[0].Panels[0].Status)
		}
		if res.Pages[0].Panels[1].Status != domain.StatusPending {
			t.Errorf("次のコマは pending のままであるべきなのだ: %s", res.Pages[0].Panels[1].Status)
		}
		if !res.Canceled {
			t.Error("Canceled が true であるべきなのだ")
		}
	})
}

func TestOrchestrator_Events(t *testing.T) {
	var mu sync.Mutex
	var observed []domain.StatusEvent
	renderer := &fakeRenderer{fail: map[string]bool{"B": true}}
	planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x2, "A", "B"))}
	o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{
		Observer: func(ev domain.StatusEvent) {
			mu.Lock()
			observed = append(observed, ev)
			mu.Unlock()
		},
	})

	res, err := o.Run(context.Background(), RunRequest{RunID: "run-ev", Story: "story"})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	type step struct {
		panel     int
		to        domain.GenerationStatus
		completed int
	}
	want := []step{
		{0, domain.StatusGenerating, 0},
		{0, domain.StatusDone, 1},
		{1, domain.StatusGenerating, 1},
		{1, domain.StatusError, 2},
	}
	if len(res.Events) != len(want) || len(observed) != len(want) {
		t.Fatalf("イベント数 期待値 %d, 実際の値 %d (observer %d)", len(want), len(res.Events), len(observed))
	}
	for i, w := range want {
		ev := res.Events[i]
		if ev.Seq != i || ev.PanelIndex != w.panel || ev.To != w.to || ev.Completed != w.completed || ev.Total != 2 {
			t.Errorf("[%d] 期待値 %+v, 実際の値 %+v", i, w, ev)
		}
		if ev.RunID != "run-ev" {
			t.Errorf("[%d] RunID が不正なのだ: %s", i, ev.RunID)
		}
		if observed[i].Seq != ev.Seq {
			t.Errorf("[%d] observer の順序が記録と一致しないのだ", i)
		}
	}
	if res.Events[1].ImageRef == "" {
		t.Error("done イベントには画像参照が含まれるべきなのだ")
	}
	if res.Events[3].Error == "" {
		t.Error("error イベントにはエラー内容が含まれるべきなのだ")
	}
}

func TestOrchestrator_Pacing(t *testing.T) {
	t.Run("呼び出し間に最小間隔を空ける", func(t *testing.T) {
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout3x1, "A", "B", "C"))}
		o := newTestOrchestrator(planner, &fakeRenderer{}, newFakeStore(), Options{Interval: 40 * time.Millisecond})

		start := time.Now()
		if _, err := o.Run(context.Background(), RunRequest{Story: "story"}); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 70*time.Millisecond {
			t.Errorf("間隔が空いていないのだ: %v", elapsed)
		}
	})

	t.Run("最後のコマの後には待たない", func(t *testing.T) {
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x1, "A"))}
		o := newTestOrchestrator(planner, &fakeRenderer{}, newFakeStore(), Options{Interval: 2 * time.Second})

		start := time.Now()
		if _, err := o.Run(context.Background(), RunRequest{Story: "story"}); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("1コマだけなのに待機しているのだ: %v", elapsed)
		}
	})

	t.Run("間隔は前の呼び出しの終了から数える", func(t *testing.T) {
		const (
			renderTime = 120 * time.Millisecond
			interval   = 80 * time.Millisecond
		)
		var (
			mu     sync.Mutex
			starts []time.Time
			ends   []time.Time
		)
		renderer := &fakeRenderer{onRender: func(generator.PanelRequest) {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			time.Sleep(renderTime)
			mu.Lock()
			ends = append(ends, time.Now())
			mu.Unlock()
		}}
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x2, "A", "B"))}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{Interval: interval})

		if _, err := o.Run(context.Background(), RunRequest{Story: "story"}); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(starts) != 2 || len(ends) != 2 {
			t.Fatalf("2回呼ばれるべきなのだ: starts=%d ends=%d", len(starts), len(ends))
		}
		if gap := starts[1].Sub(ends[0]); gap < interval {
			t.Errorf("前のコマの終了から次の開始までの間隔が短いのだ: %v (期待 >= %v)", gap, interval)
		}
	})

	t.Run("失敗したコマの後も間隔を空ける", func(t *testing.T) {
		const interval = 80 * time.Millisecond
		var (
			mu    sync.Mutex
			times []time.Time
		)
		renderer := &fakeRenderer{
			fail: map[string]bool{"A": true},
			onRender: func(generator.PanelRequest) {
				mu.Lock()
				times = append(times, time.Now())
				mu.Unlock()
			},
		}
		planner := &fakePlanner{plan: planOf(pageOf(domain.Layout1x2, "A", "B"))}
		o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{Interval: interval})

		if _, err := o.Run(context.Background(), RunRequest{Story: "story"}); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(times) != 2 {
			t.Fatalf("2回呼ばれるべきなのだ: %d", len(times))
		}
		if gap := times[1].Sub(times[0]); gap < interval {
			t.Errorf("失敗後の間隔が短いのだ: %v", gap)
		}
	})
}

func TestOrchestrator_PlanningFailure(t *testing.T) {
	planner := &fakePlanner{err: &domain.PlanningError{Reason: "JSONの解析", Err: errors.New("unexpected end of JSON input")}}
	renderer := &fakeRenderer{}
	o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

	res, err := o.Run(context.Background(), RunRequest{Story: "story"})
	if err == nil {
		t.Fatal("エラーが返されるべきなのだ")
	}
	if res != nil {
		t.Error("計画に失敗した場合は結果を返さないのだ")
	}
	if !domain.IsPlanningError(err) {
		t.Errorf("PlanningError であるべきなのだ: %v", err)
	}
	if len(renderer.requests) != 0 {
		t.Error("描画が呼ばれてはならないのだ")
	}
}

func TestOrchestrator_ExecuteRejectsInvalidPlan(t *testing.T) {
	o := newTestOrchestrator(&fakePlanner{}, &fakeRenderer{}, newFakeStore(), Options{})
	plan := planOf(pageOf(domain.Layout2x2, "A", "B"))

	_, err := o.Execute(context.Background(), RunRequest{}, plan)
	if err == nil {
		t.Fatal("コマ数がレイアウトと一致しない計画は拒否されるべきなのだ")
	}
	if !errors.Is(err, domain.ErrStructure) {
		t.Errorf("ErrStructure を含むべきなのだ: %v", err)
	}
}

func TestOrchestrator_ZephyrScenario(t *testing.T) {
	ctx := context.Background()
	bs := store.NewMemoryStore()
	refKey, err := bs.Put(ctx, &domain.Image{Data: []byte("zephyr-sheet"), MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("参照画像の保存に失敗: %v", err)
	}
	characters := domain.Roster{
		{ID: "char-zephyr", Kind: domain.AssetCharacter, Name: "Zephyr", ImageRef: refKey},
		{ID: "char-mara", Kind: domain.AssetCharacter, Name: "Mara"},
	}
	planner := &fakePlanner{plan: &domain.StoryboardPlan{Pages: []domain.PlannedPage{{
		Layout: domain.Layout1x2,
		Panels: []domain.PlannedPanel{
			{SceneDescription: "Zephyr leaps across rooftops", Dialogue: "Almost there!", CharacterNamesPresent: []string{"Zephyr", "Nobody"}},
			{SceneDescription: "An empty street at dusk"},
		},
	}}}}
	renderer := &fakeRenderer{}
	o := NewOrchestrator(planner, renderer, asset.NewResolver(bs, nil), bs, Options{})

	res, err := o.Run(ctx, RunRequest{Story: "Zephyr races home.", Style: "manga", Characters: characters})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(planner.names) != 2 || planner.names[0] != "Zephyr" {
		t.Errorf("キャラクター名がプランナーに渡されていないのだ: %v", planner.names)
	}

	first := res.Pages[0].Panels[0].Panel
	if len(first.CharacterIDs) != 1 || first.CharacterIDs[0] != "char-zephyr" {
		t.Errorf("未知の名前は捨てて Zephyr だけを束縛するのだ: %v", first.CharacterIDs)
	}
	req := renderer.requests[0]
	if len(req.Characters) != 1 || req.Characters[0].Image == nil || string(req.Characters[0].Image.Data) != "zephyr-sheet" {
		t.Errorf("Zephyr の参照画像が添付されていないのだ: %+v", req.Characters)
	}
	if req.Style != "manga" || req.Dialogue != "Almost there!" {
		t.Errorf("画風またはセリフが渡されていないのだ: %+v", req)
	}

	for _, pr := range res.Pages[0].Panels {
		img, err := bs.Get(ctx, pr.Panel.ImageRef)
		if err != nil || img == nil {
			t.Errorf("コマ画像 %q がストアに存在しないのだ: %v", pr.Panel.ImageRef, err)
		}
	}
}

func TestOrchestrator_TwoPanelZephyrStory(t *testing.T) {
	characters := domain.Roster{{ID: "c1", Kind: domain.AssetCharacter, Name: "Zephyr"}}
	planner := &fakePlanner{plan: &domain.StoryboardPlan{Pages: []domain.PlannedPage{{
		Layout: domain.Layout2x1,
		Panels: []domain.PlannedPanel{
			{SceneDescription: "Zephyr flies over the city.", CharacterNamesPresent: []string{"Zephyr"}},
			{SceneDescription: "Zephyr lands in an alley and looks worried.", CharacterNamesPresent: []string{"Zephyr"}},
		},
	}}}}
	renderer := &fakeRenderer{}
	o := newTestOrchestrator(planner, renderer, newFakeStore(), Options{})

	res, err := o.Run(context.Background(), RunRequest{
		Story:      "Zephyr flies over the city. Then Zephyr lands in an alley and looks worried.",
		Style:      "Comic",
		Characters: characters,
	})
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	got := res.Statuses()
	if len(got) != 2 || got[0] != domain.StatusDone || got[1] != domain.StatusDone {
		t.Fatalf("期待値 [done done], 実際の値 %v", got)
	}
	for i, pr := range res.Pages[0].Panels {
		if len(pr.Panel.CharacterIDs) != 1 || pr.Panel.CharacterIDs[0] != "c1" {
			t.Errorf("[%d] 期待値 [c1], 実際の値 %v", i, pr.Panel.CharacterIDs)
		}
	}
	if renderer.requests[0].Previous != nil {
		t.Error("1コマ目は直前画像なしで描画されるべきなのだ")
	}
	if got := previousData(renderer.requests[1]); got != "img:Zephyr flies over the city." {
		t.Errorf("2コマ目は1コマ目の画像を引き継ぐべきなのだ: '%s'", got)
	}
	if renderer.requests[1].Characters[0].Name != "Zephyr" {
		t.Errorf("キャラクター参照が解決されていないのだ: %+v", renderer.requests[1].Characters)
	}
}
