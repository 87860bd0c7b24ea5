package prompts

// ScriptPrompt は、テキスト生成用プロンプトを構築する契約です。
type ScriptPrompt interface {
	// Build は、指定されたモードとデータに基づいてプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}

// PanelPrompt は、コマ画像用プロンプトを構築する契約です。
type PanelPrompt interface {
	Build(in PanelPromptInput) string
}
