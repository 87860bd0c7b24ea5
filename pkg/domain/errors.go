package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited は上流の API がクォータ超過や 429 を返したことを示します。
	ErrRateLimited = errors.New("rate limited by upstream")

	// ErrNoImage は生成応答に画像パートが含まれていなかったことを示します。
	ErrNoImage = errors.New("no image part in response")

	// ErrInvalidLayout は未知のレイアウトタグです。
	ErrInvalidLayout = errors.New("invalid layout tag")

	// ErrStructure はストーリーボード応答の構造不整合です。
	ErrStructure = errors.New("storyboard structure mismatch")
)

const rateLimitHint = "API のレート制限を超えたのだ。少し待ってから再実行するか、短いストーリーで試してほしいのだ。詳細は Google AI Studio のプランと課金設定を確認してください。"

// PlanningError はストーリーボード生成の失敗です。実行全体を中断させます。
// RawResponse には診断用にモデルの生の応答を保持します。
type PlanningError struct {
	Reason      string
	RawResponse string
	Err         error
}

func (e *PlanningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ストーリーボードの生成に失敗しました: %s", e.Reason)
	}
	return fmt.Sprintf("ストーリーボードの生成に失敗しました: %s: %v", e.Reason, e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// RateLimited は上流のレート制限が原因かどうかを返します。
func (e *PlanningError) RateLimited() bool {
	return errors.Is(e.Err, ErrRateLimited)
}

// Hint は利用者向けの対処方法を返します。レート制限以外では空です。
func (e *PlanningError) Hint() string {
	if e.RateLimited() {
		return rateLimitHint
	}
	return ""
}

// RenderError は1コマの画像生成の失敗です。
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("コマ画像の生成に失敗しました: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// StoreError は生成画像の永続化の失敗です。
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("ブロブストアの %s に失敗しました (key=%s): %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("ブロブストアの %s に失敗しました: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRateLimited はエラーがレート制限に起因するかを返します。
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsPlanningError はエラーが PlanningError を含むかを返します。
func IsPlanningError(err error) bool {
	var pe *PlanningError
	return errors.As(err, &pe)
}

// IsRenderError はエラーが RenderError を含むかを返します。
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// IsStoreError はエラーが StoreError を含むかを返します。
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
