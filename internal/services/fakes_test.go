package services

import (
	"context"
	"strings"
	"sync"

	"camper-agent-service/internal/models"
)

type fakeStore struct {
	mu          sync.Mutex
	places      map[string]models.Place
	order       []string
	findErr     error
	upsertErr   map[string]error
	findCalls   int
	upsertCalls int
}

func newFakeStore(seed ...models.Place) *fakeStore {
	s := &fakeStore{places: map[string]models.Place{}, upsertErr: map[string]error{}}
	for _, p := range seed {
		_ = s.UpsertPlace(context.Background(), p)
	}
	s.upsertCalls = 0
	return s
}

func (s *fakeStore) FindPlaces(ctx context.Context, term string, limit int) ([]models.Place, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, 0, s.findErr
	}
	needle := strings.ToLower(term)
	out := []models.Place{}
	total := 0
	for _, u := range s.order {
		p := s.places[u]
		hay := strings.ToLower(p.Name + "\x00" + p.Description + "\x00" + p.Address + "\x00" + p.Area)
		if !strings.Contains(hay, needle) {
			continue
		}
		total++
		if len(out) < limit {
			out = append(out, p)
		}
	}
	return out, total, nil
}

func (s *fakeStore) UpsertPlace(ctx context.Context, p models.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if err := s.upsertErr[p.URL]; err != nil {
		return err
	}
	if _, ok := s.places[p.URL]; !ok {
		s.order = append(s.order, p.URL)
	}
	s.places[p.URL] = p
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places)
}

type fakeProvider struct {
	mu        sync.Mutex
	places    []models.Place
	err       error
	calls     int
	locations []string
}

func (p *fakeProvider) Lookup(ctx context.Context, location string, limit int) ([]models.Place, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.locations = append(p.locations, location)
	if p.err != nil {
		return nil, p.err
	}
	out := make([]models.Place, len(p.places))
	copy(out, p.places)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeSearcher struct {
	result SearchResult
	err    error
	terms  []string
}

func (s *fakeSearcher) Search(ctx context.Context, term string) (SearchResult, error) {
	s.terms = append(s.terms, term)
	return s.result, s.err
}

type fakeAgent struct {
	result AgentResult
	err    error
	calls  int
}

func (a *fakeAgent) Generate(ctx context.Context, message string, history []models.ChatTurn) (AgentResult, error) {
	a.calls++
	return a.result, a.err
}
