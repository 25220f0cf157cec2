package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/d60-Lab/social-publisher/internal/model"
)

// StoredPost is one entry of the posts document. The published record, when
// present, is kept next to the post so both survive a restart together.
type StoredPost struct {
	model.Post
	Published *model.PublishedRecord `json:"published,omitempty"`
}

// PostDocument is the persisted posts snapshot: post id -> post record.
type PostDocument map[string]*StoredPost

// PersistFunc receives the full document after every mutation.
type PersistFunc func(doc PostDocument) error

// MemoryStore keeps posts and published records in guarded maps and hands a
// full snapshot to the persistence callback after each mutation.
type MemoryStore struct {
	mu        sync.RWMutex
	posts     map[string]*model.Post
	published map[string]*model.PublishedRecord
	persist   PersistFunc
	now       func() time.Time
}

var (
	_ PostRepository   = (*MemoryStore)(nil)
	_ LedgerRepository = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store. persist may be nil.
func NewMemoryStore(persist PersistFunc) *MemoryStore {
	return &MemoryStore{
		posts:     make(map[string]*model.Post),
		published: make(map[string]*model.PublishedRecord),
		persist:   persist,
		now:       time.Now,
	}
}

// OpenMemoryStore loads the posts document from file and persists every
// later mutation back to it.
func OpenMemoryStore(file *JSONFile[PostDocument]) (*MemoryStore, error) {
	doc, err := file.Load()
	if err != nil {
		return nil, err
	}
	s := NewMemoryStore(file.Save)
	for id, sp := range doc {
		if sp == nil {
			continue
		}
		p := sp.Post
		p.ID = id
		s.posts[id] = &p
		if sp.Published != nil {
			rec := *sp.Published
			rec.PostID = id
			s.published[id] = &rec
		}
	}
	return s, nil
}

func (s *MemoryStore) snapshot() PostDocument {
	doc := make(PostDocument, len(s.posts))
	for id, p := range s.posts {
		sp := &StoredPost{Post: *p.Copy()}
		if rec, ok := s.published[id]; ok {
			r := *rec
			sp.Published = &r
		}
		doc[id] = sp
	}
	return doc
}

// flush must be called with the write lock held.
func (s *MemoryStore) flush() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist(s.snapshot()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, post *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := NewPostID(now)
	for s.posts[id] != nil {
		id = NewPostID(now)
	}
	post.ID = id
	post.CreatedAt = now
	if post.Status == "" {
		post.Status = model.PostStatusGenerated
	}
	s.posts[id] = post.Copy()
	if err := s.flush(); err != nil {
		delete(s.posts, id)
		return err
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	return p.Copy(), nil
}

func (s *MemoryStore) UpdateContent(_ context.Context, id, content string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, id)
	}
	if p.IsPublished() {
		return nil, fmt.Errorf("%w: post %s", ErrAlreadyPublished, id)
	}
	prev := p.Copy()
	now := s.now()
	p.Content = content
	p.UpdatedAt = &now
	if err := s.flush(); err != nil {
		s.posts[id] = prev
		return nil, err
	}
	return p.Copy(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*model.Post, error) {
	s.mu.RLock()
	res := make([]*model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		res = append(res, p.Copy())
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, rec := range s.published {
		if rec.PublishedAt.Before(before) {
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	for _, id := range removed {
		delete(s.posts, id)
		delete(s.published, id)
	}
	return len(removed), s.flush()
}

// Record keeps the in-memory transition even when the snapshot write fails:
// the platform already holds the post, so the caller gets ErrPersist while
// the ledger still reflects the delivery.
func (s *MemoryStore) Record(_ context.Context, rec *model.PublishedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[rec.PostID]
	if !ok {
		return fmt.Errorf("%w: post %s", ErrNotFound, rec.PostID)
	}
	if _, exists := s.published[rec.PostID]; exists || p.IsPublished() {
		return fmt.Errorf("%w: post %s", ErrAlreadyPublished, rec.PostID)
	}
	r := *rec
	s.published[rec.PostID] = &r
	now := s.now()
	p.Status = model.PostStatusPublished
	p.UpdatedAt = &now
	return s.flush()
}

func (s *MemoryStore) GetRecord(_ context.Context, postID string) (*model.PublishedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.published[postID]
	if !ok {
		return nil, fmt.Errorf("%w: record %s", ErrNotFound, postID)
	}
	r := *rec
	return &r, nil
}

func (s *MemoryStore) ListRecords(_ context.Context) ([]*model.PublishedRecord, error) {
	s.mu.RLock()
	res := make([]*model.PublishedRecord, 0, len(s.published))
	for _, rec := range s.published {
		r := *rec
		res = append(res, &r)
	}
	s.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].PublishedAt.Before(res[j].PublishedAt) })
	return res, nil
}
