package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel         = "gemini-2.5-pro"
	DefaultImageModel    = "gemini-2.5-flash-image"
	DefaultAnalysisModel = "gemini-2.5-flash"
	DefaultBlobStoreURL  = "file://output/blobs"
	DefaultPanelInterval = 1500 * time.Millisecond
	DefaultStyle         = "Comic"
	DefaultServerAddr    = ":8080"
	DefaultProjectFile   = "output/comic.yaml" // プロジェクトYAMLのデフォルト保存先なのだ
	DefaultPublishDir    = "output/publish"    // publish コマンドのデフォルト出力先なのだ
	DefaultEnvFile       = ".env"
)

// Config はアプリケーション全体の環境設定（APIキーや保存先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey        string        `validate:"required"`
	GeminiModel         string        `validate:"required"`
	GeminiImageModel    string        `validate:"required"`
	GeminiAnalysisModel string        `validate:"required"`
	BlobStoreURL        string        `validate:"required"`
	PanelInterval       time.Duration `validate:"min=0"`
	Style               string        `validate:"required"`
	ServerAddr          string        `validate:"required"`

	Options GenerateOptions
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// ソース入力関連
	StoryFile   string // --story-file
	ProjectFile string // --project

	// 出力関連
	OutputDir string // --out
	HTML      bool   // --html

	// アセット関連
	AssetKind    string // --kind
	AssetName    string // --name
	Description  string // --description
	ReferenceKey string // --reference

	// 画像編集・解析
	ImageKey    string // --key
	Instruction string // --instruction
	Question    string // --question

	// 実行制御
	Style    string        // --style
	Interval time.Duration // --interval
	Verbose  bool          // --verbose
}

var validate = validator.New()

// LoadEnv は .env を読み込むのだ。ファイルが無いのはエラーにしないのだ。
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug(".env が見つからないので環境変数だけを使うのだ", "path", p)
				continue
			}
			return fmt.Errorf(".env の読み込みに失敗しました: %w", err)
		}
	}
	return nil
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		GeminiAPIKey:        envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:         envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		GeminiImageModel:    envutil.GetEnv("IMAGE_GEMINI_MODEL", DefaultImageModel),
		GeminiAnalysisModel: envutil.GetEnv("ANALYSIS_GEMINI_MODEL", DefaultAnalysisModel),
		BlobStoreURL:        envutil.GetEnv("BLOB_STORE_URL", DefaultBlobStoreURL),
		PanelInterval:       parseDuration(envutil.GetEnv("PANEL_INTERVAL", ""), DefaultPanelInterval),
		Style:               envutil.GetEnv("COMIC_STYLE", DefaultStyle),
		ServerAddr:          envutil.GetEnv("SERVER_ADDR", DefaultServerAddr),
	}
}

// ApplyOptions は CLI フラグで指定された値を環境変数由来の値より優先させるのだ。
func (c *Config) ApplyOptions(opts GenerateOptions, intervalSet bool) {
	c.Options = opts
	if strings.TrimSpace(opts.Style) != "" {
		c.Style = opts.Style
	}
	if intervalSet {
		c.PanelInterval = opts.Interval
	}
}

// Validate は必須項目を検証するのだ。requireAPIKey が false なら API キーの検査を省くのだ。
func (c *Config) Validate(requireAPIKey bool) error {
	var err error
	if requireAPIKey {
		err = validate.Struct(c)
	} else {
		err = validate.StructExcept(c, "GeminiAPIKey")
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			names = append(names, envName(fe.Field()))
		}
		return fmt.Errorf("設定が不正です: %s", strings.Join(names, ", "))
	}
	return fmt.Errorf("設定の検証に失敗しました: %w", err)
}

func envName(field string) string {
	switch field {
	case "GeminiAPIKey":
		return "GEMINI_API_KEY"
	case "GeminiModel":
		return "GEMINI_MODEL"
	case "GeminiImageModel":
		return "IMAGE_GEMINI_MODEL"
	case "GeminiAnalysisModel":
		return "ANALYSIS_GEMINI_MODEL"
	case "BlobStoreURL":
		return "BLOB_STORE_URL"
	case "PanelInterval":
		return "PANEL_INTERVAL"
	case "Style":
		return "COMIC_STYLE"
	case "ServerAddr":
		return "SERVER_ADDR"
	}
	return field
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("PANEL_INTERVAL を解釈できないので既定値を使うのだ", "value", raw, "default", def)
		return def
	}
	return d
}
