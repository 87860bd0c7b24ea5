package domain

import "fmt"

// AssetKind はアセットの種類（キャラクターまたはロケーション）を表します。
type AssetKind string

const (
	AssetCharacter AssetKind = "character"
	AssetLocation  AssetKind = "location"
)

// Valid は既知の種類かどうかを返します。
func (k AssetKind) Valid() bool {
	return k == AssetCharacter || k == AssetLocation
}

// Label はプロンプト文中で使う表示名を返します。
func (k AssetKind) Label() string {
	if k == AssetLocation {
		return "location"
	}
	return "character"
}

// Asset はキャラクターやロケーションの参照アートを保持します。
// ImageRef はブロブストアのキーで、未生成の間は空です。
type Asset struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        AssetKind `json:"kind" yaml:"kind"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Style       string    `json:"style" yaml:"style"`
	ImageRef    string    `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
}

// String はアセットの情報を文字列で返すのだ。
func (a Asset) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.ID)
}

// HasImage は参照画像が生成済みかどうかを返します。
func (a Asset) HasImage() bool {
	return a.ImageRef != ""
}

// ResolvedAsset は ImageRef を実際の画像データに置き換えたアセットです。
// Image は参照画像が未生成、またはストアに存在しない場合 nil になります。
type ResolvedAsset struct {
	Asset
	Image *Image
}

// Image はブロブストアに保存される画像データです。
type Image struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mimeType"`
}

// DefaultImageMIMEType は MIME タイプ不明の画像に使うデフォルト値です。
const DefaultImageMIMEType = "image/png"

// Clone は Data を複製した画像を返します。
func (img *Image) Clone() *Image {
	if img == nil {
		return nil
	}
	data := make([]byte, len(img.Data))
	copy(data, img.Data)
	return &Image{Data: data, MIMEType: img.MIMEType}
}
