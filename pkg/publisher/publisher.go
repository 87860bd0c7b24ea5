package publisher

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/yuin/goldmark"
)

// ImageGetter はブロブストアの読み出し側の契約です。
type ImageGetter interface {
	Get(ctx context.Context, key string) (*domain.Image, error)
}

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
	// HTML が true なら Markdown から HTML 版も生成します。
	HTML bool
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string
	HTMLPath     string
	ImagePaths   []string
	// Missing はストアに画像が見つからなかったコマのIDです。
	Missing []string
}

// ComicPublisher はプロジェクトの画像と Markdown を書き出します。
type ComicPublisher struct {
	writer   OutputWriter
	images   ImageGetter
	markdown *MarkdownBuilder
	md       goldmark.Markdown
}

// NewComicPublisher は ComicPublisher を生成します。
func NewComicPublisher(writer OutputWriter, images ImageGetter) *ComicPublisher {
	return &ComicPublisher{
		writer:   writer,
		images:   images,
		markdown: NewMarkdownBuilder(),
		md:       goldmark.New(),
	}
}

// Publish は画像の書き出し、Markdown の構築、HTML 変換を一括して実行するのだ。
func (p *ComicPublisher) Publish(ctx context.Context, project *domain.Project, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if project == nil {
		return result, fmt.Errorf("プロジェクトが指定されていません")
	}

	markdownPath, err := ResolveOutputPath(opts.OutputDir, DefaultMarkdownName)
	if err != nil {
		return result, err
	}
	imgDir, err := ResolveOutputPath(opts.OutputDir, DefaultImageDir)
	if err != nil {
		return result, err
	}

	relPaths, err := p.saveImages(ctx, project, imgDir, &result)
	if err != nil {
		return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}

	content := p.markdown.Build(project, relPaths)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	if opts.HTML {
		slog.InfoContext(ctx, "HTML に変換するのだ", "title", project.Title)
		var body bytes.Buffer
		if err := p.md.Convert([]byte(content), &body); err != nil {
			return result, fmt.Errorf("HTMLの変換に失敗しました: %w", err)
		}
		htmlPath, err := ResolveOutputPath(opts.OutputDir, DefaultHTMLName)
		if err != nil {
			return result, err
		}
		if err := p.writer.Write(ctx, htmlPath, wrapHTML(project.Title, body.String()), "text/html; charset=utf-8"); err != nil {
			return result, fmt.Errorf("HTMLファイルの書き込みに失敗しました: %w", err)
		}
		result.HTMLPath = htmlPath
	}
	return result, nil
}

// saveImages はコマ画像をストアから取り出して連番ファイルとして書き出し、コマID -> 相対パスを返します。
func (p *ComicPublisher) saveImages(ctx context.Context, project *domain.Project, imgDir string, result *PublishResult) (map[string]string, error) {
	rel := make(map[string]string)
	index := 0
	for _, page := range project.Pages {
		for _, panel := range page.Panels {
			if panel.ImageRef == "" {
				result.Missing = append(result.Missing, panel.ID)
				continue
			}
			img, err := p.images.Get(ctx, panel.ImageRef)
			if err != nil {
				return nil, &domain.StoreError{Op: "get", Key: panel.ImageRef, Err: err}
			}
			if img == nil || len(img.Data) == 0 {
				slog.WarnContext(ctx, "コマ画像がストアに見つからないのだ", "panel_id", panel.ID, "image_ref", panel.ImageRef)
				result.Missing = append(result.Missing, panel.ID)
				continue
			}

			index++
			base, err := ResolveOutputPath(imgDir, "panel"+ExtensionFor(img.MIMEType))
			if err != nil {
				return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
			}
			fullPath, err := GenerateIndexedPath(base, index)
			if err != nil {
				return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
			}
			if err := p.writer.Write(ctx, fullPath, bytes.NewReader(img.Data), img.MIMEType); err != nil {
				return nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
			}
			result.ImagePaths = append(result.ImagePaths, fullPath)
			rel[panel.ID] = path.Join(DefaultImageDir, filepath.Base(fullPath))
		}
	}
	return rel, nil
}

func wrapHTML(title, body string) *strings.Reader {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"ja\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return strings.NewReader(sb.String())
}
