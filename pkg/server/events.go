package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// handleEvents は実行のイベントを seq 0 から再送し、その後は発生順に配信します。
// 実行が終わり全イベントを送り終えたら正常終了で閉じます。
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rn, ok := s.runs.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "実行が見つかりません")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket へのアップグレードに失敗したのだ", "error", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("WebSocket の読み込みが終了したのだ", "error", err)
				}
				return
			}
		}
	}()

	seq := 0
	for {
		events, changed, finished := rn.since(seq)
		for _, ev := range events {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("WebSocket への書き込みに失敗したのだ", "run_id", rn.id, "error", err)
				return
			}
			seq++
		}
		if finished && len(events) == 0 {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
		if len(events) > 0 {
			continue
		}
		select {
		case <-changed:
		case <-gone:
			return
		case <-s.baseCtx.Done():
			return
		}
	}
}
