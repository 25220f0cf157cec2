package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

// PageService connects platform pages. Credentials are verified against the
// platform before anything is stored.
type PageService interface {
	Connect(ctx context.Context, pageID, accessToken string) (*model.ConnectedPage, error)
	Get(ctx context.Context, pageID string) (*model.ConnectedPage, error)
	List(ctx context.Context) ([]*model.ConnectedPage, error)
}

type pageService struct {
	pages repository.PageRepository
	graph GraphAPI
	now   func() time.Time
}

func NewPageService(pages repository.PageRepository, graph GraphAPI) PageService {
	return &pageService{pages: pages, graph: graph, now: time.Now}
}

func (s *pageService) Connect(ctx context.Context, pageID, accessToken string) (*model.ConnectedPage, error) {
	pageID, accessToken = strings.TrimSpace(pageID), strings.TrimSpace(accessToken)
	if pageID == "" || accessToken == "" {
		return nil, newError(ErrInvalidInput, "Page ID and access token are required")
	}

	info, err := s.graph.VerifyPage(ctx, pageID, accessToken)
	if err != nil {
		logger.Warn("page verification failed", zap.String("page_id", pageID), zap.Error(err))
		return nil, &PublishError{Kind: ErrVerificationFailed, Message: "Invalid page access token", Err: err}
	}

	name := info.Name
	if name == "" {
		name = "Unknown Page"
	}
	page := &model.ConnectedPage{
		ID:          pageID,
		Name:        name,
		AccessToken: accessToken,
		ConnectedAt: s.now(),
	}
	if err := s.pages.Put(ctx, page); err != nil {
		return nil, err
	}
	logger.Info("connected page", zap.String("page_id", pageID), zap.String("name", name))
	return page, nil
}

func (s *pageService) Get(ctx context.Context, pageID string) (*model.ConnectedPage, error) {
	p, err := s.pages.Get(ctx, pageID)
	return p, fromRepository(err, "page "+pageID)
}

func (s *pageService) List(ctx context.Context) ([]*model.ConnectedPage, error) {
	return s.pages.List(ctx)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
