// Package project は作品データを YAML ファイルとして読み書きします。
package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"gopkg.in/yaml.v3"
)

// New は既定のプロンプトテンプレートを持つ空のプロジェクトを作成します。
// style が空なら画風は未設定のままで、最初の生成時に確定します。
func New(title, style string) *domain.Project {
	return &domain.Project{
		ID:              uuid.NewString(),
		Title:           title,
		Style:           strings.TrimSpace(style),
		PromptTemplates: prompts.DefaultSettings(),
	}
}

// Load は path の YAML を読み込みます。ファイルが無ければ新しいプロジェクトを返します。
func Load(path string) (*domain.Project, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return New(title, ""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの読み込みに失敗しました: %w", err)
	}
	return Decode(raw)
}

// Decode は YAML を Project に変換し、欠けている既定値を補います。
func Decode(raw []byte) (*domain.Project, error) {
	var p domain.Project
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("プロジェクトファイルの解析に失敗しました: %w", err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Style = strings.TrimSpace(p.Style)
	p.PromptTemplates = prompts.WithDefaults(p.PromptTemplates)

	for i := range p.Pages {
		l, err := domain.ParseLayout(string(p.Pages[i].Layout))
		if err != nil {
			return nil, fmt.Errorf("ページ %d: %w", i+1, err)
		}
		p.Pages[i].Layout = l
	}
	fillKind(p.Characters, domain.AssetCharacter)
	fillKind(p.Locations, domain.AssetLocation)
	return &p, nil
}

func fillKind(list []domain.Asset, kind domain.AssetKind) {
	for i := range list {
		if list[i].Kind == "" {
			list[i].Kind = kind
		}
	}
}

// Encode は Project を YAML に変換します。
func Encode(p *domain.Project) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("プロジェクトのエンコードに失敗しました: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("プロジェクトのエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// Save は一時ファイルに書き出してから置き換えることで、途中で失敗しても元のファイルを壊さないようにします。
func Save(path string, p *domain.Project) error {
	raw, err := Encode(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".project-*.yaml")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("プロジェクトファイルの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("プロジェクトファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("プロジェクトファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}

// EncodePlan はストーリーボードを YAML に変換します。plan コマンドの出力に使います。
func EncodePlan(plan *domain.StoryboardPlan) ([]byte, error) {
	raw, err := yaml.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("ストーリーボードのエンコードに失敗しました: %w", err)
	}
	return raw, nil
}
