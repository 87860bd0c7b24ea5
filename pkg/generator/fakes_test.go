package generator

import (
	"context"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"google.golang.org/genai"
)

type fakeStructured struct {
	raw    string
	err    error
	prompt string
	schema *genai.Schema
	calls  int
}

func (f *fakeStructured) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.calls++
	f.prompt, f.schema = prompt, schema
	return f.raw, f.err
}

type fakeImageGen struct {
	mu      sync.Mutex
	img     *domain.Image
	err     error
	prompts []string
	refs    [][]*domain.Image
}

func (f *fakeImageGen) GenerateImage(ctx context.Context, prompt string, refs []*domain.Image) (*domain.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.refs = append(f.refs, refs)
	return f.img, f.err
}

type fakeAnalyzer struct {
	text   string
	prompt string
}

func (f *fakeAnalyzer) AnalyzeImage(ctx context.Context, prompt string, images []*domain.Image) (string, error) {
	f.prompt = prompt
	return f.text, nil
}
