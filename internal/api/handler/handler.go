package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-publisher/internal/content"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/service"
	"github.com/d60-Lab/social-publisher/pkg/response"
)

type Publisher interface {
	Publish(ctx context.Context, req service.PublishRequest) (*service.PublishResult, error)
}

type Deps struct {
	Posts     service.PostService
	Pages     service.PageService
	Publisher Publisher
	Content   service.ContentService
	Planner   *content.Planner
	// MaxImageBytes caps the publish upload; zero means 16 MiB.
	MaxImageBytes int64
}

type Handler struct {
	posts     service.PostService
	pages     service.PageService
	publisher Publisher
	content   service.ContentService
	planner   *content.Planner
	maxImage  int64
}

func New(d Deps) *Handler {
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = 16 << 20
	}
	return &Handler{
		posts:     d.Posts,
		pages:     d.Pages,
		publisher: d.Publisher,
		content:   d.Content,
		planner:   d.Planner,
		maxImage:  d.MaxImageBytes,
	}
}

type postView struct {
	ID string `json:"id"`
	*model.Post
}

func viewPost(p *model.Post) postView { return postView{ID: p.ID, Post: p} }

// pageView never carries the access token.
type pageView struct {
	ID          string    `json:"page_id"`
	Name        string    `json:"name"`
	ConnectedAt time.Time `json:"connected_at"`
}

func viewPage(p *model.ConnectedPage) pageView {
	return pageView{ID: p.ID, Name: p.Name, ConnectedAt: p.ConnectedAt}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTarget),
		errors.Is(err, service.ErrVerificationFailed),
		errors.Is(err, content.ErrInvalidDay),
		errors.Is(err, content.ErrNotEnough),
		errors.Is(err, content.ErrNothingToPlan):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, content.ErrEmptyDay):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyPublished):
		return http.StatusConflict
	case errors.Is(err, service.ErrPublishFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status its kind maps to. Server-side failures are
// reported to Sentry when the middleware installed a hub.
func fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	_ = c.Error(err)

	var pe *service.PublishError
	switch {
	case errors.As(err, &pe) && status != http.StatusInternalServerError:
		if pe.Detail != "" {
			response.ErrorWithData(c, status, pe.Message, gin.H{"details": pe.Detail})
			return
		}
		response.Error(c, status, pe.Message)
	case status == http.StatusInternalServerError:
		response.InternalError(c, err)
	default:
		response.Error(c, status, err.Error())
	}
}
