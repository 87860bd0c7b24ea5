package prompts

// FallbackStyleEnhancers は未知の画風に使う汎用フラグメントです。
const FallbackStyleEnhancers = "high quality, detailed"

var styleEnhancers = map[string]string{
	"Comic":     "dynamic ink lines, bold colors, halftone patterns, dramatic shadows",
	"Manga":     "clean line art, screentones, expressive eyes, dynamic action lines",
	"Cartoon":   "simple shapes, bright saturated colors, thick outlines",
	"Pixel Art": "8-bit, grid-based, limited color palette, retro gaming aesthetic",
	"Retro":     "vintage comic aesthetic, faded colors, paper texture, 1960s style",
}

// StyleEnhancers は画風タグに対応する描写フラグメントを返します。
// 未知のタグでも失敗せず FallbackStyleEnhancers を返します。
func StyleEnhancers(style string) string {
	if s, ok := styleEnhancers[style]; ok {
		return s
	}
	return FallbackStyleEnhancers
}
