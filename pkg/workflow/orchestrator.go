package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"golang.org/x/time/rate"
)

// DefaultPanelInterval はコマ生成呼び出しの最小間隔です。
const DefaultPanelInterval = 1500 * time.Millisecond

// Options は Orchestrator の動作設定です。
type Options struct {
	// Interval は連続するコマ生成呼び出しの最小間隔です。0 以下なら間隔を空けません。
	Interval time.Duration
	Canceler cancel.Flag
	Observer Observer
}

// Orchestrator はストーリーボードをページ順、コマ順に1枚ずつ描画します。
// 同じページ内では直前に成功したコマ画像を次のコマに引き継ぎ、ページ境界と失敗時にリセットします。
type Orchestrator struct {
	planner  Planner
	renderer PanelRenderer
	resolver ReferenceResolver
	store    BlobStore
	opts     Options
}

// NewOrchestrator は Orchestrator を生成します。
func NewOrchestrator(planner Planner, renderer PanelRenderer, resolver ReferenceResolver, store BlobStore, opts Options) *Orchestrator {
	return &Orchestrator{
		planner:  planner,
		renderer: renderer,
		resolver: resolver,
		store:    store,
		opts:     opts,
	}
}

// Run はストーリーボードを作成してから全コマを描画します。
// 計画の失敗だけが実行全体のエラーになり、コマ単位の失敗は結果に記録されます。
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	roster := req.Characters.Snapshot()

	plan, err := o.planner.Plan(ctx, req.Story, req.Style, roster.Names())
	if err != nil {
		var pe *domain.PlanningError
		if errors.As(err, &pe) && pe.RateLimited() {
			slog.ErrorContext(ctx, "レート制限によりストーリーボード生成に失敗したのだ", "run_id", req.RunID, "hint", pe.Hint())
		} else {
			slog.ErrorContext(ctx, "ストーリーボード生成に失敗したのだ", "run_id", req.RunID, "error", err)
		}
		return nil, err
	}
	return o.Execute(ctx, req, plan)
}

// Execute は検証済みの計画に沿って全コマを描画します。
func (o *Orchestrator) Execute(ctx context.Context, req RunRequest, plan *domain.StoryboardPlan) (*RunResult, error) {
	if err := generator.ValidatePlan(plan); err != nil {
		return nil, &domain.PlanningError{Reason: "計画の検証", Err: err}
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	characters := req.Characters.Snapshot()
	locations := req.Locations.Snapshot()

	result := materialize(req.RunID, plan, characters)
	rec := newRecorder(req.RunID, result.Total, chainObservers(o.opts.Observer, req.Observer))
	pace := newPacer(o.opts.Interval)

	logger := slog.With("run_id", req.RunID)
	logger.InfoContext(ctx, "コマの順次生成を開始するのだ", "pages", len(result.Pages), "panels", result.Total)

	// 生成呼び出し自体はキャンセルで中断しない
	callCtx := context.WithoutCancel(ctx)

run:
	for pi := range result.Pages {
		page := &result.Pages[pi]
		var previous *domain.Image

		for ni := range page.Panels {
			if o.canceled(ctx, req.RunID) {
				result.Canceled = true
				break run
			}
			if err := pace.wait(ctx); err != nil {
				result.Canceled = true
				break run
			}

			pr := &page.Panels[ni]
			panelLogger := logger.With("page", pi+1, "panel", ni+1, "panel_id", pr.Panel.ID)

			if err := rec.transition(pi, ni, pr, domain.StatusGenerating, nil); err != nil {
				return nil, err
			}

			img, err := o.renderPanel(callCtx, req, pr.Panel, characters, locations, previous)
			pace.mark()
			if err == nil {
				var key string
				key, err = o.store.Put(callCtx, img)
				if err != nil {
					err = &domain.StoreError{Op: "put", Err: err}
				} else {
					pr.Panel.ImageRef = key
				}
			}

			if err != nil {
				panelLogger.WarnContext(ctx, "コマの生成に失敗したため次のコマへ進むのだ", "error", err)
				previous = nil
				if terr := rec.transition(pi, ni, pr, domain.StatusError, err); terr != nil {
					return nil, terr
				}
				continue
			}

			previous = img
			if terr := rec.transition(pi, ni, pr, domain.StatusDone, nil); terr != nil {
				return nil, terr
			}
			_, completed := rec.snapshot()
			panelLogger.InfoContext(ctx, "コマを生成したのだ", "image_ref", pr.Panel.ImageRef, "progress", fmt.Sprintf("%d/%d", completed, result.Total))
		}
	}

	result.Events, result.Completed = rec.snapshot()
	if result.Canceled {
		logger.InfoContext(ctx, "キャンセル要求により生成を停止したのだ", "completed", result.Completed, "total", result.Total)
	} else {
		logger.InfoContext(ctx, "すべてのコマの処理が完了したのだ",
			"done", result.Count(domain.StatusDone), "error", result.Count(domain.StatusError))
	}
	return result, nil
}

func (o *Orchestrator) renderPanel(ctx context.Context, req RunRequest, panel domain.Panel, characters, locations domain.Roster, previous *domain.Image) (*domain.Image, error) {
	chars, err := o.resolver.Resolve(ctx, panel.CharacterIDs, characters)
	if err != nil {
		return nil, &domain.RenderError{Err: err}
	}
	locs, err := o.resolver.Resolve(ctx, panel.LocationIDs, locations)
	if err != nil {
		return nil, &domain.RenderError{Err: err}
	}

	return o.renderer.Render(ctx, generator.PanelRequest{
		SceneDescription: panel.Description,
		Dialogue:         panel.Dialogue,
		Characters:       chars,
		Locations:        locs,
		Expressions:      panel.CharacterExpressions,
		Style:            req.Style,
		Template:         req.PanelTemplate,
		CameraAngle:      panel.CameraAngle,
		Lighting:         panel.Lighting,
		Previous:         previous,
	})
}

func (o *Orchestrator) canceled(ctx context.Context, runID string) bool {
	if ctx.Err() != nil {
		return true
	}
	return o.opts.Canceler != nil && o.opts.Canceler.Canceled(ctx, runID)
}

func chainObservers(observers ...Observer) Observer {
	var active []Observer
	for _, ob := range observers {
		if ob != nil {
			active = append(active, ob)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(ev domain.StatusEvent) {
		for _, ob := range active {
			ob(ev)
		}
	}
}

// pacer は直前の描画呼び出しが終わってから次の呼び出しまでの最小間隔を保証します。
// 最初の呼び出しは待たず、最後の呼び出しの後にも待ちません。
type pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// mark は描画呼び出しの終了を記録します。ここから interval が経過するまで wait はブロックします。
func (p *pacer) mark() {
	if p.interval <= 0 {
		return
	}
	// バースト1のトークンを終了時刻で使い切る
	p.limiter = rate.NewLimiter(rate.Every(p.interval), 1)
	p.limiter.Allow()
}

func (p *pacer) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// materialize は計画を全コマ pending の結果に展開し、キャラクター名をIDに解決します。
func materialize(runID string, plan *domain.StoryboardPlan, characters domain.Roster) *RunResult {
	result := &RunResult{
		RunID: runID,
		Plan:  plan,
		Pages: make([]PageResult, 0, len(plan.Pages)),
		Total: plan.PanelCount(),
	}
	for _, pp := range plan.Pages {
		page := PageResult{
			ID:     uuid.NewString(),
			Layout: pp.Layout,
			Panels: make([]PanelResult, 0, len(pp.Panels)),
		}
		for _, pn := range pp.Panels {
			page.Panels = append(page.Panels, PanelResult{
				Status: domain.StatusPending,
				Panel: domain.Panel{
					ID:           uuid.NewString(),
					Description:  pn.SceneDescription,
					Dialogue:     pn.Dialogue,
					CharacterIDs: characters.IDsForNames(pn.CharacterNamesPresent),
				},
			})
		}
		result.Pages = append(result.Pages, page)
	}
	return result
}
