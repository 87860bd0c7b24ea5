package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
)

type fakePlanner struct {
	plan  *domain.StoryboardPlan
	err   error
	calls int
	names []string
}

func (f *fakePlanner) Plan(ctx context.Context, story, style string, characterNames []string) (*domain.StoryboardPlan, error) {
	f.calls++
	f.names = characterNames
	return f.plan, f.err
}

type fakeRenderer struct {
	mu       sync.Mutex
	requests []generator.PanelRequest
	fail     map[string]bool
	onRender func(req generator.PanelRequest)
}

func (f *fakeRenderer) Render(ctx context.Context, req generator.PanelRequest) (*domain.Image, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	hook := f.onRender
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	if f.fail[req.SceneDescription] {
		return nil, &domain.RenderError{Err: errors.New("モデルが画像を返しませんでした")}
	}
	return &domain.Image{Data: []byte("img:" + req.SceneDescription), MIMEType: "image/png"}, nil
}

func (f *fakeRenderer) scenes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.SceneDescription
	}
	return out
}

type passResolver struct{}

func (passResolver) Resolve(ctx context.Context, ids []string, assets []domain.Asset) ([]domain.ResolvedAsset, error) {
	var out []domain.ResolvedAsset
	for _, id := range ids {
		for _, a := range assets {
			if a.ID == id {
				out = append(out, domain.ResolvedAsset{Asset: a})
			}
		}
	}
	return out, nil
}

type fakeStore struct {
	mu      sync.Mutex
	images  map[string]*domain.Image
	failPut map[int]bool
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{images: make(map[string]*domain.Image), failPut: make(map[int]bool)}
}

func (s *fakeStore) Put(ctx context.Context, img *domain.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.failPut[s.puts] {
		return "", errors.New("disk full")
	}
	key := fmt.Sprintf("img_%d", s.puts)
	s.images[key] = img.Clone()
	return key, nil
}

func (s *fakeStore) Get(ctx context.Context, key string) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[key]
	if !ok {
		return nil, nil
	}
	return img.Clone(), nil
}

func planOf(pages ...domain.PlannedPage) *domain.StoryboardPlan {
	return &domain.StoryboardPlan{Pages: pages}
}

func pageOf(layout domain.Layout, scenes ...string) domain.PlannedPage {
	p := domain.PlannedPage{Layout: layout}
	for _, s := range scenes {
		p.Panels = append(p.Panels, domain.PlannedPanel{SceneDescription: s, Dialogue: ""})
	}
	return p
}
