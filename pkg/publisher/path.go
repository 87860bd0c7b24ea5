package publisher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultImageDir は書き出したコマ画像を置くディレクトリ名です。
	DefaultImageDir = "images"
	// DefaultMarkdownName はストーリーボード Markdown のファイル名です。
	DefaultMarkdownName = "comic.md"
	// DefaultHTMLName は HTML 版のファイル名です。
	DefaultHTMLName = "comic.html"
	// DefaultPanelFileName はコマ画像の共通のベースファイル名です。
	DefaultPanelFileName = "panel.png"
)

// PanelFileRegex は書き出したコマ画像 (panel_1.png 等) に一致します。
var PanelFileRegex = createIndexedRegex(DefaultPanelFileName)

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolvePath(baseDir, fileName)
}

// GenerateIndexedPath は拡張子の前に連番を挿入したパスを返します。
// 例: "images/panel.png", 1 -> "images/panel_1.png"
func GenerateIndexedPath(basePath string, index int) (string, error) {
	return urlpath.GenerateIndexedPath(basePath, index)
}

// ExtensionFor は MIME タイプに対応する画像の拡張子を返します。
func ExtensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "panel.png" -> ^panel_\d+\.(png|jpg|webp)$
func createIndexedRegex(fileName string) *regexp.Regexp {
	ext := filepath.Ext(fileName)
	baseName := strings.TrimSuffix(fileName, ext)
	pattern := fmt.Sprintf(`^%s_\d+\.(png|jpg|webp)$`, regexp.QuoteMeta(baseName))
	return regexp.MustCompile(pattern)
}
