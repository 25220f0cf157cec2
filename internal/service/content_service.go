package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/content"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

type HeadlineSource interface {
	Headlines(ctx context.Context, industry string) []string
}

type BusinessAnalyzer interface {
	Analyze(ctx context.Context, url string) (*content.BusinessInfo, error)
}

// ContentService produces post text without storing it.
type ContentService interface {
	GenerateBatch(ctx context.Context, profile content.Profile, tone, postType string, frequency int) ([]string, error)
	News(ctx context.Context, industry string) ([]string, error)
	AnalyzeBusiness(ctx context.Context, url string) (*content.BusinessInfo, error)
}

type contentService struct {
	generator *content.Generator
	news      HeadlineSource
	analyzer  BusinessAnalyzer
}

func NewContentService(generator *content.Generator, news HeadlineSource, analyzer BusinessAnalyzer) ContentService {
	return &contentService{generator: generator, news: news, analyzer: analyzer}
}

func (s *contentService) GenerateBatch(ctx context.Context, profile content.Profile, tone, postType string, frequency int) ([]string, error) {
	if strings.TrimSpace(profile.Name) == "" || strings.TrimSpace(profile.Industry) == "" {
		return nil, newError(ErrInvalidInput, "Business profile not found")
	}
	if postType == "" {
		return nil, newError(ErrInvalidInput, "Post Preferences not found")
	}
	var headlines []string
	if postType == content.PostTypeUpdate {
		headlines = s.news.Headlines(ctx, profile.Industry)
	}
	posts := s.generator.Generate(profile, headlines, tone, postType, frequency)
	logger.Info("generated content batch",
		zap.String("industry", profile.Industry),
		zap.String("post_type", postType),
		zap.Int("count", len(posts)))
	return posts, nil
}

func (s *contentService) News(ctx context.Context, industry string) ([]string, error) {
	if strings.TrimSpace(industry) == "" {
		return nil, newError(ErrInvalidInput, "Missing industry parameter")
	}
	return s.news.Headlines(ctx, industry), nil
}

func (s *contentService) AnalyzeBusiness(ctx context.Context, url string) (*content.BusinessInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, newError(ErrInvalidInput, "Missing URL")
	}
	logger.Info("analyzing business website", zap.String("url", url))
	return s.analyzer.Analyze(ctx, url)
}
