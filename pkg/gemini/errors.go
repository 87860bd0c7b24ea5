package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"google.golang.org/genai"
)

const statusResourceExhausted = "RESOURCE_EXHAUSTED"

var (
	rateLimitMarkers = []string{"rate limit", "quota", "resource_exhausted", "too many requests"}
	// "Error 429" や "status: 429" のようにステータスとして現れる 429 だけに一致する
	statusCode429 = regexp.MustCompile(`(?i)\b(?:error|code|status)\W{0,3}429\b`)
)

// IsRateLimitError は上流のレート制限を判定します。
// genai.APIError ならコードとステータスで、それ以外はエラー文言で判定します。
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if code, status, ok := apiErrorOf(err); ok {
		return code == http.StatusTooManyRequests || status == statusResourceExhausted
	}
	msg := err.Error()
	if statusCode429.MatchString(msg) {
		return true
	}
	lower := strings.ToLower(msg)
	for _, m := range rateLimitMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func apiErrorOf(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}

// classify はレート制限エラーに domain.ErrRateLimited を付与します。
func classify(err error) error {
	if IsRateLimitError(err) {
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	}
	return fmt.Errorf("Gemini API の呼び出しに失敗しました: %w", err)
}
