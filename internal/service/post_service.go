package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/content"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

type GenerateRequest struct {
	PageID      string
	Industry    string
	Tone        string
	ContentType string
}

// PostService manages drafted posts before they reach the Publisher.
type PostService interface {
	Create(ctx context.Context, text, pageID string) (*model.Post, error)
	Generate(ctx context.Context, req GenerateRequest) (*model.Post, error)
	Update(ctx context.Context, id, text string) (*model.Post, error)
	Get(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)
	ListPublished(ctx context.Context) ([]*model.PublishedRecord, error)
}

type postService struct {
	posts     repository.PostRepository
	ledger    repository.LedgerRepository
	pages     repository.PageRepository
	generator *content.Generator
}

func NewPostService(posts repository.PostRepository, ledger repository.LedgerRepository, pages repository.PageRepository, generator *content.Generator) PostService {
	if generator == nil {
		generator = content.NewGenerator(0)
	}
	return &postService{posts: posts, ledger: ledger, pages: pages, generator: generator}
}

func (s *postService) Create(ctx context.Context, text, pageID string) (*model.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, newError(ErrInvalidInput, "Post content is required")
	}
	p := &model.Post{Content: text, PageID: strings.TrimSpace(pageID), Status: model.PostStatusGenerated}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("created post", zap.String("post_id", p.ID), zap.String("page_id", p.PageID))
	return p, nil
}

// Generate stores template text as a draft. A page, when named, must
// already be connected.
func (s *postService) Generate(ctx context.Context, req GenerateRequest) (*model.Post, error) {
	if req.PageID != "" {
		if _, err := s.pages.Get(ctx, req.PageID); err != nil {
			if isNotFound(err) {
				return nil, newError(ErrInvalidTarget, "Page not connected. Connect the page first or leave page_id empty for standalone generation")
			}
			return nil, err
		}
	}
	if req.Industry == "" {
		req.Industry = "general"
	}
	if req.Tone == "" {
		req.Tone = "professional"
	}
	if req.ContentType == "" {
		req.ContentType = content.ContentTypeTrending
	}

	p := &model.Post{
		PageID:      req.PageID,
		Content:     s.generator.GenerateAI(req.Industry, req.Tone, req.ContentType),
		Status:      model.PostStatusDraft,
		Industry:    req.Industry,
		Tone:        req.Tone,
		ContentType: req.ContentType,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("generated post", zap.String("post_id", p.ID), zap.String("industry", p.Industry))
	return p, nil
}

func (s *postService) Update(ctx context.Context, id, text string) (*model.Post, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(text) == "" {
		return nil, newError(ErrInvalidInput, "Post ID and content are required")
	}
	p, err := s.posts.UpdateContent(ctx, id, text)
	if err != nil {
		return nil, fromRepository(err, "post "+id)
	}
	logger.Info("updated post", zap.String("post_id", id))
	return p, nil
}

func (s *postService) Get(ctx context.Context, id string) (*model.Post, error) {
	p, err := s.posts.Get(ctx, id)
	return p, fromRepository(err, "post "+id)
}

// List pages through posts in creation order and reports the total count.
func (s *postService) List(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return []*model.Post{}, len(all), nil
	}
	end := min(offset+pageSize, len(all))
	return all[offset:end], len(all), nil
}

func (s *postService) ListPublished(ctx context.Context) ([]*model.PublishedRecord, error) {
	return s.ledger.ListRecords(ctx)
}
