package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/graph"
	"github.com/d60-Lab/social-publisher/internal/lock"
	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/internal/watermark"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/social-publisher/internal/service")

// GraphAPI is the subset of the platform client the services depend on.
type GraphAPI interface {
	VerifyPage(ctx context.Context, pageID, accessToken string) (*graph.PageInfo, error)
	UploadPhoto(ctx context.Context, pageID, accessToken string, photo graph.Photo) (*graph.Result, error)
	CreateFeedPost(ctx context.Context, pageID, accessToken string, post graph.FeedPost) (*graph.Result, error)
	PostURL(platformPostID string) string
}

type ImageMarker interface {
	Apply(src []byte) watermark.Result
}

type PublishRequest struct {
	PostID     string
	Image      []byte
	ScheduleAt *time.Time
	// PageID is consulted only when neither the configured default nor the
	// post itself names a page.
	PageID string
}

type PublishResult struct {
	PostID         string                 `json:"post_id"`
	PlatformPostID string                 `json:"fb_post_id"`
	PostURL        string                 `json:"fb_post_url"`
	Message        string                 `json:"message"`
	Warning        string                 `json:"warning,omitempty"`
	HadImage       bool                   `json:"had_image"`
	Scheduled      bool                   `json:"scheduled"`
	Record         *model.PublishedRecord `json:"-"`
}

const (
	duplicateDisclosure = "\n\n[Note: Image was previously posted]"
	duplicateNote       = "Posted as text-only due to duplicate image"
	duplicateWarning    = "Image was already posted, published text-only version"

	msgScheduled     = "Post scheduled successfully on Facebook."
	msgPublished     = "Post published successfully to Facebook."
	msgDuplicateText = "Post published successfully (text-only due to duplicate image)"
)

type PublisherDeps struct {
	Posts         repository.PostRepository
	Ledger        repository.LedgerRepository
	Pages         repository.PageRepository
	Graph         GraphAPI
	Marker        ImageMarker
	Locker        lock.Locker
	Metrics       *metrics.Metrics
	DefaultPageID string
}

// Publisher delivers stored posts to the platform. Attempts for the same post
// id are serialized through the Locker.
type Publisher struct {
	posts         repository.PostRepository
	ledger        repository.LedgerRepository
	pages         repository.PageRepository
	graph         GraphAPI
	marker        ImageMarker
	locker        lock.Locker
	metrics       *metrics.Metrics
	defaultPageID string
	now           func() time.Time
}

func NewPublisher(d PublisherDeps) *Publisher {
	if d.Locker == nil {
		d.Locker = lock.NewKeyed()
	}
	if d.Marker == nil {
		d.Marker = watermark.New(95, 0, d.Metrics)
	}
	return &Publisher{
		posts:         d.Posts,
		ledger:        d.Ledger,
		pages:         d.Pages,
		graph:         d.Graph,
		marker:        d.Marker,
		locker:        d.Locker,
		metrics:       d.Metrics,
		defaultPageID: strings.TrimSpace(d.DefaultPageID),
		now:           time.Now,
	}
}

// Publish runs one delivery attempt for req.PostID. Nothing is stored unless
// the platform accepted the post.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "publisher.Publish")
	defer span.End()
	span.SetAttributes(
		attribute.String("post_id", req.PostID),
		attribute.Bool("has_image", len(req.Image) > 0),
		attribute.Bool("scheduled", req.ScheduleAt != nil),
	)

	res, err := p.publish(ctx, req)
	outcome := "success"
	switch {
	case err == nil:
		if res.Warning != "" {
			outcome = "degraded"
		}
	case errors.Is(err, ErrPublishFailed):
		outcome = "failed"
	default:
		outcome = "rejected"
	}
	p.metrics.ObservePublish(outcome, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return res, err
}

func (p *Publisher) publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.PostID) == "" {
		return nil, newError(ErrInvalidInput, "Post ID is required")
	}
	// unknown ids fail fast without touching the lock
	if _, err := p.posts.Get(ctx, req.PostID); err != nil {
		return nil, fromRepository(err, "post "+req.PostID)
	}

	release, err := p.locker.Acquire(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("acquire publish lock for %s: %w", req.PostID, err)
	}
	defer release()

	post, err := p.posts.Get(ctx, req.PostID)
	if err != nil {
		return nil, fromRepository(err, "post "+req.PostID)
	}
	if post.IsPublished() {
		return nil, &PublishError{Kind: ErrAlreadyPublished, Message: "post " + post.ID + " is already published"}
	}

	run := &publishRun{req: req, post: post}
	p.drive(ctx, run)
	if run.err != nil {
		return nil, run.err
	}
	return run.result, nil
}

// resolvePageID applies the target precedence: configured default, the
// post's own page, the caller's override, then the only connected page.
func (p *Publisher) resolvePageID(ctx context.Context, post *model.Post, override string) (string, error) {
	for _, id := range []string{p.defaultPageID, post.PageID, override} {
		if id = strings.TrimSpace(id); id != "" {
			return id, nil
		}
	}
	pages, err := p.pages.List(ctx)
	if err != nil {
		return "", err
	}
	if len(pages) == 1 {
		return pages[0].ID, nil
	}
	return "", nil
}

func (p *Publisher) successMessage(run *publishRun) string {
	if run.duplicateRetried {
		return msgDuplicateText
	}
	if run.scheduledInFuture {
		return msgScheduled
	}
	return msgPublished
}

func (p *Publisher) log(run *publishRun, state publishState) {
	pageID := ""
	if run.page != nil {
		pageID = run.page.ID
	}
	logger.Debug("publish transition",
		zap.String("post_id", run.post.ID),
		zap.String("page_id", pageID),
		zap.Stringer("state", state))
}
