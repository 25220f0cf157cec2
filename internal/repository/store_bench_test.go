package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/d60-Lab/social-publisher/internal/model"
)

type benchStore struct {
	name   string
	posts  PostRepository
	ledger LedgerRepository
}

func benchStores(b *testing.B) []benchStore {
	file := NewJSONFile[PostDocument](filepath.Join(b.TempDir(), "posts.json"))
	snap, err := OpenMemoryStore(file)
	if err != nil {
		b.Fatalf("open snapshot store: %v", err)
	}
	mem := NewMemoryStore(nil)
	db := setupTestDB(b)
	return []benchStore{
		{name: "memory", posts: mem, ledger: mem},
		{name: "snapshot", posts: snap, ledger: snap},
		{name: "gorm-sqlite", posts: NewPostRepository(db), ledger: NewLedgerRepository(db)},
	}
}

// BenchmarkCreateAndRecord measures the write path of one publish: the post
// is created, then its record lands together with the status change.
func BenchmarkCreateAndRecord(b *testing.B) {
	for _, s := range benchStores(b) {
		b.Run(s.name, func(b *testing.B) {
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				p := &model.Post{Content: fmt.Sprintf("post %d", i), PageID: "pg1"}
				if err := s.posts.Create(ctx, p); err != nil {
					b.Fatalf("create: %v", err)
				}
				if err := s.ledger.Record(ctx, &model.PublishedRecord{
					PostID:         p.ID,
					PageID:         "pg1",
					PlatformPostID: fmt.Sprintf("fb_%d", i),
					PublishedAt:    time.Now(),
					Content:        p.Content,
				}); err != nil {
					b.Fatalf("record: %v", err)
				}
			}
		})
	}
}

func BenchmarkList(b *testing.B) {
	const n = 2000
	for _, s := range benchStores(b) {
		ctx := context.Background()
		for i := 0; i < n; i++ {
			p := &model.Post{Content: fmt.Sprintf("post %d", i)}
			if err := s.posts.Create(ctx, p); err != nil {
				b.Fatalf("seed: %v", err)
			}
			if i%2 == 0 {
				_ = s.ledger.Record(ctx, &model.PublishedRecord{PostID: p.ID, PublishedAt: time.Now()})
			}
		}

		b.Run(s.name+"/posts", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = s.posts.List(ctx)
			}
		})
		b.Run(s.name+"/records", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = s.ledger.ListRecords(ctx)
			}
		})
	}
}
