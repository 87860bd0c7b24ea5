package generator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// planValidator は layout タグ検証を登録済みのバリデーターです。
var planValidator = newPlanValidator()

func newPlanValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("layout", func(fl validator.FieldLevel) bool {
		return domain.Layout(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("layout バリデーションの登録に失敗しました: %v", err))
	}
	return v
}

// ValidatePlan は計画の必須項目とレイアウトごとのコマ数を検証します。
func ValidatePlan(plan *domain.StoryboardPlan) error {
	if plan == nil {
		return fmt.Errorf("%w: 計画が空です", domain.ErrStructure)
	}
	if err := planValidator.Struct(plan); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrStructure, describeValidation(err))
	}
	for i, page := range plan.Pages {
		if want := page.Layout.PanelCount(); len(page.Panels) != want {
			return fmt.Errorf("%w: ページ %d のレイアウト %s は %d コマですが %d コマありました",
				domain.ErrStructure, i+1, page.Layout, want, len(page.Panels))
		}
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}
