package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/d60-Lab/social-publisher/internal/model"
)

// PostRepository stores drafted posts.
type PostRepository interface {
	// Create assigns the post an id and creation time and stores it.
	Create(ctx context.Context, post *model.Post) error

	// Get returns a copy of the post or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Post, error)

	// UpdateContent replaces the text of a post that is not yet published.
	UpdateContent(ctx context.Context, id, content string) (*model.Post, error)

	// List returns every post ordered by creation time.
	List(ctx context.Context) ([]*model.Post, error)

	// Prune deletes published posts, and their records, published before the cutoff.
	Prune(ctx context.Context, before time.Time) (int, error)
}

// LedgerRepository stores the outcome of successful publishes.
type LedgerRepository interface {
	// Record stores rec and moves the post to the published status as one
	// step. A second record for the same post fails with ErrAlreadyPublished.
	Record(ctx context.Context, rec *model.PublishedRecord) error

	GetRecord(ctx context.Context, postID string) (*model.PublishedRecord, error)
	ListRecords(ctx context.Context) ([]*model.PublishedRecord, error)
}

// PageRepository stores connected pages and their credentials.
type PageRepository interface {
	// Put stores the page, replacing an earlier connection of the same id.
	Put(ctx context.Context, page *model.ConnectedPage) error
	Get(ctx context.Context, id string) (*model.ConnectedPage, error)
	List(ctx context.Context) ([]*model.ConnectedPage, error)
}

// TokenSealer protects page credentials at rest.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type plainSealer struct{}

func (plainSealer) Seal(s string) (string, error) { return s, nil }
func (plainSealer) Open(s string) (string, error) { return s, nil }

// PlainSealer stores credentials unmodified.
var PlainSealer TokenSealer = plainSealer{}

var postSeq atomic.Uint32

// NewPostID returns an id made of the creation second and a process-wide counter.
func NewPostID(now time.Time) string {
	return fmt.Sprintf("post_%s_%04d", now.Format("20060102_150405"), postSeq.Add(1)%10000)
}
