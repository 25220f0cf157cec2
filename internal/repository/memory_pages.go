package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/d60-Lab/social-publisher/internal/model"
)

// PageDocument is the persisted page registry: page id -> page.
type PageDocument map[string]*model.ConnectedPage

// MemoryPageStore keeps connected pages in memory. When a file is attached,
// the registry is written back after every Put with credentials sealed.
type MemoryPageStore struct {
	mu     sync.RWMutex
	pages  map[string]*model.ConnectedPage
	file   *JSONFile[PageDocument]
	sealer TokenSealer
}

var _ PageRepository = (*MemoryPageStore)(nil)

func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{pages: make(map[string]*model.ConnectedPage), sealer: PlainSealer}
}

// OpenMemoryPageStore loads the registry from file. sealer may be nil, in
// which case credentials are written as given.
func OpenMemoryPageStore(file *JSONFile[PageDocument], sealer TokenSealer) (*MemoryPageStore, error) {
	if sealer == nil {
		sealer = PlainSealer
	}
	s := &MemoryPageStore{pages: make(map[string]*model.ConnectedPage), file: file, sealer: sealer}
	doc, err := file.Load()
	if err != nil {
		return nil, err
	}
	for id, p := range doc {
		if p == nil {
			continue
		}
		token, err := sealer.Open(p.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("open credential for page %s: %w", id, err)
		}
		page := *p
		page.ID = id
		page.AccessToken = token
		s.pages[id] = &page
	}
	return s, nil
}

func (s *MemoryPageStore) flush() error {
	if s.file == nil {
		return nil
	}
	doc := make(PageDocument, len(s.pages))
	for id, p := range s.pages {
		sealed, err := s.sealer.Seal(p.AccessToken)
		if err != nil {
			return fmt.Errorf("%w: seal credential: %v", ErrPersist, err)
		}
		page := *p
		page.AccessToken = sealed
		doc[id] = &page
	}
	if err := s.file.Save(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *MemoryPageStore) Put(_ context.Context, page *model.ConnectedPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.pages[page.ID]
	p := *page
	s.pages[page.ID] = &p
	if err := s.flush(); err != nil {
		if had {
			s.pages[page.ID] = prev
		} else {
			delete(s.pages, page.ID)
		}
		return err
	}
	return nil
}

func (s *MemoryPageStore) Get(_ context.Context, id string) (*model.ConnectedPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	page := *p
	return &page, nil
}

func (s *MemoryPageStore) List(_ context.Context) ([]*model.ConnectedPage, error) {
	s.mu.RLock()
	res := make([]*model.ConnectedPage, 0, len(s.pages))
	for _, p := range s.pages {
		page := *p
		res = append(res, &page)
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
