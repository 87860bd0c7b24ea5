package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
)

// SheetGenerator はアセットの参照画像を生成します。
type SheetGenerator interface {
	Generate(ctx context.Context, req generator.AssetSheetRequest) (*domain.Image, error)
}

// ImageEditor は既存画像の編集と解析を行います。
type ImageEditor interface {
	Edit(ctx context.Context, src *domain.Image, instruction string) (*domain.Image, error)
	Analyze(ctx context.Context, src *domain.Image, question string) (string, error)
}

// AssetRequest はアセット画像生成の入力です。
type AssetRequest struct {
	Kind         domain.AssetKind
	Name         string
	Description  string
	ReferenceKey string
	// Style が空ならプロジェクトの画風を使います。
	Style string
}

// Studio はプロジェクト単位のアセット作成と画像編集をまとめます。
type Studio struct {
	sheets SheetGenerator
	editor ImageEditor
	store  BlobStore
}

// NewStudio は Studio を生成します。
func NewStudio(sheets SheetGenerator, editor ImageEditor, store BlobStore) *Studio {
	return &Studio{sheets: sheets, editor: editor, store: store}
}

// CreateAsset はアセット画像を生成して保存し、プロジェクトに登録します。
// 同じ種別と名前のアセットが既にあれば ID を引き継いで置き換えます。
func (s *Studio) CreateAsset(ctx context.Context, project *domain.Project, req AssetRequest) (domain.Asset, error) {
	if project == nil {
		return domain.Asset{}, fmt.Errorf("プロジェクトが指定されていません")
	}
	var ref *domain.Image
	if req.ReferenceKey != "" {
		img, err := s.load(ctx, req.ReferenceKey)
		if err != nil {
			return domain.Asset{}, err
		}
		ref = img
	}

	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = project.Style
	}

	tmpl := project.PromptTemplates.Character
	if req.Kind == domain.AssetLocation {
		tmpl = project.PromptTemplates.Location
	}

	img, err := s.sheets.Generate(ctx, generator.AssetSheetRequest{
		Kind:        req.Kind,
		Name:        req.Name,
		Description: req.Description,
		Style:       style,
		Template:    tmpl,
		Reference:   ref,
	})
	if err != nil {
		return domain.Asset{}, err
	}

	key, err := s.store.Put(ctx, img)
	if err != nil {
		return domain.Asset{}, &domain.StoreError{Op: "put", Err: err}
	}

	asset := domain.Asset{
		ID:          findAssetID(project, req.Kind, req.Name),
		Kind:        req.Kind,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Style:       style,
		ImageRef:    key,
	}
	project.UpsertAsset(asset)
	slog.InfoContext(ctx, "アセットを登録したのだ", "kind", asset.Kind, "name", asset.Name, "image_ref", key)
	return asset, nil
}

// EditImage は key の画像を編集し、新しいキーで保存します。元の画像は残ります。
func (s *Studio) EditImage(ctx context.Context, key, instruction string) (string, error) {
	src, err := s.load(ctx, key)
	if err != nil {
		return "", err
	}
	img, err := s.editor.Edit(ctx, src, instruction)
	if err != nil {
		return "", err
	}
	newKey, err := s.store.Put(ctx, img)
	if err != nil {
		return "", &domain.StoreError{Op: "put", Err: err}
	}
	return newKey, nil
}

// AnalyzeImage は key の画像について質問し、回答テキストを返します。
func (s *Studio) AnalyzeImage(ctx context.Context, key, question string) (string, error) {
	src, err := s.load(ctx, key)
	if err != nil {
		return "", err
	}
	return s.editor.Analyze(ctx, src, question)
}

func (s *Studio) load(ctx context.Context, key string) (*domain.Image, error) {
	img, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Key: key, Err: err}
	}
	if img == nil {
		return nil, fmt.Errorf("画像 %q が見つかりません", key)
	}
	return img, nil
}

func findAssetID(project *domain.Project, kind domain.AssetKind, name string) string {
	list := project.Characters
	if kind == domain.AssetLocation {
		list = project.Locations
	}
	name = strings.TrimSpace(name)
	for _, a := range list {
		if a.Name == name {
			return a.ID
		}
	}
	return uuid.NewString()
}
