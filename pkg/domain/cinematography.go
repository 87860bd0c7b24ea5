package domain

// ArtStyles はプロジェクトで選択できる画風です。
var ArtStyles = []string{"Comic", "Manga", "Cartoon", "Pixel Art", "Retro"}

// CameraAngles はコマのカメラアングル候補です。
var CameraAngles = []string{
	"Eye-Level", "High-Angle", "Low-Angle", "Close-Up",
	"Extreme Close-Up", "Medium Shot", "Long Shot", "Dutch Angle",
}

// LightingStyles はコマのライティング候補です。
var LightingStyles = []string{
	"Bright, even lighting",
	"Dramatic Rim Lighting",
	"Soft, diffused light",
	"Chiaroscuro (High-contrast)",
	"Night time, neon glow",
	"Golden Hour (Sunset)",
}

// Expressions はキャラクターの表情候補です。
var Expressions = []string{
	"Neutral", "Happy", "Sad", "Angry", "Surprised",
	"Scared", "Confused", "Determined", "Pensive", "Smirking",
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// IsKnownStyle は定義済みの画風かどうかを返します。
func IsKnownStyle(style string) bool { return contains(ArtStyles, style) }

// IsKnownCameraAngle は定義済みのカメラアングルかどうかを返します。
func IsKnownCameraAngle(angle string) bool { return contains(CameraAngles, angle) }

// IsKnownLighting は定義済みのライティングかどうかを返します。
func IsKnownLighting(lighting string) bool { return contains(LightingStyles, lighting) }
