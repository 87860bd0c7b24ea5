package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

const maxRequestBody = 1 << 20

// CreateRunRequest は POST /api/runs の本文です。
type CreateRunRequest struct {
	Story         string         `json:"story" validate:"required"`
	Style         string         `json:"style"`
	Characters    []domain.Asset `json:"characters" validate:"dive"`
	Locations     []domain.Asset `json:"locations" validate:"dive"`
	PanelTemplate string         `json:"panelTemplate"`
}

// CreateRunResponse は POST /api/runs の応答です。
type CreateRunResponse struct {
	RunID string `json:"runId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("レスポンスの書き込みに失敗したのだ", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var body CreateRunRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("リクエストの解析に失敗しました: %v", err))
		return
	}
	body.Story = strings.TrimSpace(body.Story)
	if err := s.validate.Struct(body); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s は必須です", verrs[0].Field()))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(body.Style) == "" {
		body.Style = s.DefaultStyle
	}
	req := workflow.RunRequest{
		RunID:         uuid.NewString(),
		Story:         body.Story,
		Style:         body.Style,
		Characters:    withKind(body.Characters, domain.AssetCharacter),
		Locations:     withKind(body.Locations, domain.AssetLocation),
		PanelTemplate: body.PanelTemplate,
	}
	s.start(req)
	slog.InfoContext(r.Context(), "実行を受け付けたのだ", "run_id", req.RunID, "characters", len(req.Characters))
	writeJSON(w, http.StatusAccepted, CreateRunResponse{RunID: req.RunID})
}

func withKind(assets []domain.Asset, kind domain.AssetKind) domain.Roster {
	out := make(domain.Roster, len(assets))
	for i, a := range assets {
		if a.Kind == "" {
			a.Kind = kind
		}
		out[i] = a
	}
	return out
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	rn, ok := s.runs.get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "実行が見つかりません")
		return
	}
	writeJSON(w, http.StatusOK, rn.snapshot())
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.runs.get(id); !ok {
		writeError(w, http.StatusNotFound, "実行が見つかりません")
		return
	}
	if err := s.canceler.Cancel(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "キャンセルフラグの設定に失敗したのだ", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "キャンセルフラグの設定に失敗しました")
		return
	}
	slog.InfoContext(r.Context(), "キャンセルを受け付けたのだ", "run_id", id)
	writeJSON(w, http.StatusAccepted, CreateRunResponse{RunID: id})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	img, err := s.images.Get(r.Context(), key)
	if err != nil {
		slog.WarnContext(r.Context(), "画像の取得に失敗したのだ", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "画像の取得に失敗しました")
		return
	}
	if img == nil {
		writeError(w, http.StatusNotFound, "画像が見つかりません")
		return
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultImageMIMEType
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}
