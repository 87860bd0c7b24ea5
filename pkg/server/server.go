// Package server は実行の開始、状態の取得、キャンセル、イベント配信を行う HTTP API です。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// Runner はストーリーから漫画を生成する実行本体です。
type Runner interface {
	Run(ctx context.Context, req workflow.RunRequest) (*workflow.RunResult, error)
}

// ImageGetter はブロブストアの読み出し側の契約です。
type ImageGetter interface {
	Get(ctx context.Context, key string) (*domain.Image, error)
}

// Server は HTTP API の本体です。
type Server struct {
	baseCtx  context.Context
	runner   Runner
	images   ImageGetter
	canceler cancel.Flag
	runs     *registry
	router   *mux.Router
	upgrader websocket.Upgrader
	validate *validator.Validate
	wg       sync.WaitGroup
	// DefaultStyle はリクエストで画風が省略されたときに使います。
	DefaultStyle string
	// OnCommit は実行が終わった後に結果を受け取ります。nil なら何もしません。
	OnCommit func(ctx context.Context, res *workflow.RunResult)
}

// New は Server を生成します。ctx はバックグラウンド実行の親コンテキストです。
// canceler は Runner が参照しているものと同じフラグを渡します。
func New(ctx context.Context, runner Runner, images ImageGetter, canceler cancel.Flag) *Server {
	s := &Server{
		baseCtx:  ctx,
		runner:   runner,
		images:   images,
		canceler: canceler,
		runs:     newRegistry(),
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(enableCORS)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.handleCreateRun).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/cancel", s.handleCancelRun).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/runs/{id}/events", s.handleEvents).Methods(http.MethodGet)
	api.HandleFunc("/images/{key}", s.handleImage).Methods(http.MethodGet)
	return r
}

// Handler は全ルートを持つ http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Wait はバックグラウンドで動いている実行がすべて終わるまで待ちます。
func (s *Server) Wait() {
	s.wg.Wait()
}

// ListenAndServe は ctx が終了するまで addr で待ち受けます。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP サーバーを起動するのだ", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP サーバーの起動に失敗しました: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelFn := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancelFn()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP サーバーの停止に失敗しました: %w", err)
	}
	slog.Info("実行中の生成が終わるのを待つのだ")
	s.Wait()
	return nil
}

// start は実行を登録し、バックグラウンドで開始します。
func (s *Server) start(req workflow.RunRequest) *run {
	rn := newRun(req.RunID)
	s.runs.add(rn)
	req.Observer = rn.observe

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger := slog.With("run_id", req.RunID)
		res, err := s.runner.Run(s.baseCtx, req)
		if err != nil {
			logger.Error("実行に失敗したのだ", "error", err)
		}
		rn.finish(res, err)
		if err == nil && s.OnCommit != nil {
			s.OnCommit(s.baseCtx, res)
		}
	}()
	return rn
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
