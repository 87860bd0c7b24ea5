package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/store"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

type stubPlanner struct{}

func (stubPlanner) Plan(ctx context.Context, story, style string, names []string) (*domain.StoryboardPlan, error) {
	return &domain.StoryboardPlan{Pages: []domain.PlannedPage{{
		Layout: domain.Layout1x2,
		Panels: []domain.PlannedPanel{
			{SceneDescription: "first", CharacterNamesPresent: names},
			{SceneDescription: "second"},
		},
	}}}, nil
}

// gatedRenderer は gate が閉じられるまで描画を止めます。
type gatedRenderer struct {
	entered chan string
	gate    chan struct{}
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{entered: make(chan string, 8), gate: make(chan struct{})}
}

func (g *gatedRenderer) Render(ctx context.Context, req generator.PanelRequest) (*domain.Image, error) {
	g.entered <- req.SceneDescription
	<-g.gate
	return &domain.Image{Data: []byte("img:" + req.SceneDescription), MIMEType: "image/png"}, nil
}

type testEnv struct {
	srv      *Server
	http     *httptest.Server
	renderer *gatedRenderer
	store    *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bs := store.NewMemoryStore()
	flag := cancel.NewMemoryFlag()
	renderer := newGatedRenderer()
	orch := workflow.NewOrchestrator(stubPlanner{}, renderer, asset.NewResolver(bs, nil), bs, workflow.Options{Canceler: flag})

	srv := New(context.Background(), orch, bs, flag)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return &testEnv{srv: srv, http: hs, renderer: renderer, store: bs}
}

func (e *testEnv) createRun(t *testing.T, body string) string {
	t.Helper()
	resp, err := http.Post(e.http.URL+"/api/runs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("期待値 202, 実際の値 %d", resp.StatusCode)
	}
	var out CreateRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.RunID == "" {
		t.Fatalf("runId が返されていないのだ: %v", err)
	}
	return out.RunID
}

func (e *testEnv) snapshot(t *testing.T, id string) RunSnapshot {
	t.Helper()
	resp, err := http.Get(e.http.URL + "/api/runs/" + id)
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("期待値 200, 実際の値 %d", resp.StatusCode)
	}
	var snap RunSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("応答の解析に失敗: %v", err)
	}
	return snap
}

func waitEntered(t *testing.T, r *gatedRenderer, want string) {
	t.Helper()
	select {
	case got := <-r.entered:
		if got != want {
			t.Fatalf("期待値 '%s', 実際の値 '%s'", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("コマ %q の描画が始まらないのだ", want)
	}
}

func TestCreateRun_Validation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
	}{
		{"空のストーリー", `{"story": "   "}`},
		{"壊れた JSON", `{"story":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(env.http.URL+"/api/runs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("リクエストに失敗: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("期待値 400, 実際の値 %d", resp.StatusCode)
			}
		})
	}
}

func TestRunLifecycle_EventsAndImages(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRun(t, `{"story": "Zephyr races home.", "style": "manga", "characters": [{"id": "c1", "name": "Zephyr"}]}`)
	waitEntered(t, env.renderer, "first")

	wsURL := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/api/runs/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket の接続に失敗: %v", err)
	}
	defer conn.Close()

	close(env.renderer.gate)

	var events []domain.StatusEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev domain.StatusEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("正常終了以外で切断されたのだ: %v", err)
			}
			break
		}
		events = append(events, ev)
	}

	if len(events) != 4 {
		t.Fatalf("期待値 4 イベント, 実際の値 %d", len(events))
	}
	for i, ev := range events {
		if ev.Seq != i || ev.RunID != id {
			t.Errorf("[%d] seq または runId が不正なのだ: %+v", i, ev)
		}
	}
	if events[3].To != domain.StatusDone || events[3].Completed != 2 {
		t.Errorf("最後のイベントは2コマ目の done であるべきなのだ: %+v", events[3])
	}

	env.srv.Wait()
	snap := env.snapshot(t, id)
	if snap.State != StateDone || !snap.Done || snap.Completed != 2 || snap.Total != 2 {
		t.Fatalf("スナップショットが不正なのだ: %+v", snap)
	}

	resp, err := http.Get(env.http.URL + "/api/images/" + snap.Panels[0].ImageRef)
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(data, []byte("img:first")) {
		t.Errorf("画像の内容が一致しないのだ: %d %q", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("期待値 'image/png', 実際の値 '%s'", ct)
	}
}

func TestRunCancel(t *testing.T) {
	env := newTestEnv(t)
	id := env.createRun(t, `{"story": "A short tale."}`)
	waitEntered(t, env.renderer, "first")

	resp, err := http.Post(env.http.URL+"/api/runs/"+id+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("リクエストに失敗: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("期待値 202, 実際の値 %d", resp.StatusCode)
	}

	close(env.renderer.gate)
	env.srv.Wait()

	snap := env.snapshot(t, id)
	if snap.State != StateCanceled {
		t.Fatalf("期待値 '%s', 実際の値 '%s'", StateCanceled, snap.State)
	}
	if len(snap.Panels) != 2 {
		t.Fatalf("期待値 2 コマ, 実際の値 %d", len(snap.Panels))
	}
	if snap.Panels[0].Status != domain.StatusDone {
		t.Errorf("実行中だったコマは done まで進むのだ: %s", snap.Panels[0].Status)
	}
	if snap.Panels[1].Status != domain.StatusPending {
		t.Errorf("残りのコマは pending のままなのだ: %s", snap.Panels[1].Status)
	}
}

func TestUnknownResources(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"実行の取得", http.MethodGet, "/api/runs/nope"},
		{"キャンセル", http.MethodPost, "/api/runs/nope/cancel"},
		{"イベント", http.MethodGet, "/api/runs/nope/events"},
		{"画像", http.MethodGet, "/api/images/img_0_missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, env.http.URL+tt.path, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("リクエストに失敗: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("期待値 404, 実際の値 %d", resp.StatusCode)
			}
		})
	}
}
