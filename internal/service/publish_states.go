package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/graph"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

type publishState int

const (
	stateResolveTarget publishState = iota
	stateHasImage
	stateUploadFailed
	stateUploadOK
	stateNoImage
	statePublishAttempted
	stateDuplicateRetry
	stateRecordSuccess
	stateDone
	stateFailed
)

var stateNames = [...]string{
	stateResolveTarget:    "resolve_target",
	stateHasImage:         "has_image",
	stateUploadFailed:     "upload_failed",
	stateUploadOK:         "upload_ok",
	stateNoImage:          "no_image",
	statePublishAttempted: "publish_attempted",
	stateDuplicateRetry:   "duplicate_retry",
	stateRecordSuccess:    "record_success",
	stateDone:             "done",
	stateFailed:           "failed",
}

func (s publishState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s publishState) terminal() bool { return s == stateDone || s == stateFailed }

// publishRun is the working set of one delivery attempt.
type publishRun struct {
	req  PublishRequest
	post *model.Post
	page *model.ConnectedPage

	scheduledInFuture bool
	mediaID           string
	feed              *graph.Result
	hadImage          bool
	duplicateRetried  bool
	note              string
	warning           string

	result *PublishResult
	err    error
	trail  []publishState
}

type transition func(p *Publisher, ctx context.Context, run *publishRun) publishState

var transitions = map[publishState]transition{
	stateResolveTarget:    (*Publisher).resolveTarget,
	stateHasImage:         (*Publisher).uploadImage,
	stateUploadFailed:     (*Publisher).postAfterUploadFailure,
	stateUploadOK:         (*Publisher).postWithMedia,
	stateNoImage:          (*Publisher).postTextOnly,
	statePublishAttempted: (*Publisher).inspectFeedResult,
	stateDuplicateRetry:   (*Publisher).retryWithoutImage,
	stateRecordSuccess:    (*Publisher).recordSuccess,
}

// maxSteps bounds the walk; the longest legal path has seven transitions.
const maxSteps = 16

func (p *Publisher) drive(ctx context.Context, run *publishRun) {
	span := trace.SpanFromContext(ctx)
	state := stateResolveTarget
	for steps := 0; !state.terminal(); steps++ {
		if steps == maxSteps {
			run.err = fmt.Errorf("publish %s: state machine did not terminate (last %s)", run.post.ID, state)
			return
		}
		p.log(run, state)
		span.AddEvent(state.String())
		run.trail = append(run.trail, state)
		state = transitions[state](p, ctx, run)
	}
	run.trail = append(run.trail, state)
}

func (p *Publisher) fail(run *publishRun, err error) publishState {
	run.err = err
	return stateFailed
}

func (p *Publisher) resolveTarget(ctx context.Context, run *publishRun) publishState {
	pageID, err := p.resolvePageID(ctx, run.post, run.req.PageID)
	if err != nil {
		return p.fail(run, err)
	}
	if pageID == "" {
		logger.Error("post has no valid page id", zap.String("post_id", run.post.ID))
		return p.fail(run, newError(ErrInvalidTarget, "Invalid page ID associated with this post"))
	}
	page, err := p.pages.Get(ctx, pageID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Error("page is not connected", zap.String("post_id", run.post.ID), zap.String("page_id", pageID))
		return p.fail(run, newError(ErrInvalidTarget, "Page not connected"))
	}
	if err != nil {
		return p.fail(run, err)
	}
	run.page = page
	if at := run.req.ScheduleAt; at != nil && at.After(p.now()) {
		run.scheduledInFuture = true
	}
	if len(run.req.Image) > 0 {
		return stateHasImage
	}
	return stateNoImage
}

func (p *Publisher) uploadImage(ctx context.Context, run *publishRun) publishState {
	marked := p.marker.Apply(run.req.Image)
	if !marked.Applied {
		logger.Warn("watermark skipped, uploading original image",
			zap.String("post_id", run.post.ID), zap.Error(marked.Err))
	}

	res, err := p.graph.UploadPhoto(ctx, run.page.ID, run.page.AccessToken, graph.Photo{
		Caption:     run.post.Content,
		Image:       marked.Data,
		ScheduledAt: run.req.ScheduleAt,
	})
	switch {
	case err != nil:
		logger.Warn("image upload failed", zap.String("post_id", run.post.ID), zap.Error(err))
		return stateUploadFailed
	case !res.OK():
		msg, detail := res.ErrorMessage()
		logger.Warn("image upload rejected",
			zap.String("post_id", run.post.ID),
			zap.Int("status", res.StatusCode),
			zap.String("error", msg), zap.String("detail", detail))
		return stateUploadFailed
	case res.ID == "":
		logger.Warn("image upload returned no media handle", zap.String("post_id", run.post.ID))
		return stateNoImage
	}
	run.mediaID = res.ID
	return stateUploadOK
}

// postAfterUploadFailure drops the image and degrades to a text post.
func (p *Publisher) postAfterUploadFailure(ctx context.Context, run *publishRun) publishState {
	p.metrics.Fallback("upload_failed")
	logger.Warn("posting without attached media as fallback", zap.String("post_id", run.post.ID))
	return p.postFeed(ctx, run, run.post.Content, nil)
}

func (p *Publisher) postWithMedia(ctx context.Context, run *publishRun) publishState {
	return p.postFeed(ctx, run, run.post.Content, []string{run.mediaID})
}

func (p *Publisher) postTextOnly(ctx context.Context, run *publishRun) publishState {
	return p.postFeed(ctx, run, run.post.Content, nil)
}

func (p *Publisher) postFeed(ctx context.Context, run *publishRun, message string, media []string) publishState {
	res, err := p.graph.CreateFeedPost(ctx, run.page.ID, run.page.AccessToken, graph.FeedPost{
		Message:     message,
		MediaIDs:    media,
		ScheduledAt: run.req.ScheduleAt,
	})
	if err != nil {
		logger.Error("feed post failed", zap.String("post_id", run.post.ID), zap.Error(err))
		return p.fail(run, &PublishError{
			Kind:    ErrPublishFailed,
			Message: "Failed to publish to Facebook",
			Detail:  err.Error(),
			Err:     err,
		})
	}
	run.feed = res
	run.hadImage = len(media) > 0
	return statePublishAttempted
}

func (p *Publisher) inspectFeedResult(_ context.Context, run *publishRun) publishState {
	if run.feed.OK() {
		return stateRecordSuccess
	}
	if !run.duplicateRetried && run.feed.Error.IsDuplicateMedia() {
		return stateDuplicateRetry
	}

	msg, detail := run.feed.ErrorMessage()
	logger.Error("platform rejected post",
		zap.String("post_id", run.post.ID),
		zap.Int("status", run.feed.StatusCode),
		zap.String("error", msg), zap.String("detail", detail))
	var cause error
	if run.duplicateRetried {
		cause = ErrDuplicateMedia
	}
	return p.fail(run, &PublishError{
		Kind:    ErrPublishFailed,
		Message: "Failed to publish to Facebook: " + msg,
		Detail:  detail,
		Err:     cause,
	})
}

// retryWithoutImage runs at most once per attempt.
func (p *Publisher) retryWithoutImage(ctx context.Context, run *publishRun) publishState {
	p.metrics.Fallback("duplicate_media")
	logger.Warn("duplicate image detected, posting text-only version", zap.String("post_id", run.post.ID))
	run.duplicateRetried = true
	next := p.postFeed(ctx, run, run.post.Content+duplicateDisclosure, nil)
	if next == statePublishAttempted && run.feed.OK() {
		run.note = duplicateNote
		run.warning = duplicateWarning
	}
	return next
}

func (p *Publisher) recordSuccess(ctx context.Context, run *publishRun) publishState {
	now := p.now()
	rec := &model.PublishedRecord{
		PostID:         run.post.ID,
		PageID:         run.page.ID,
		PlatformPostID: run.feed.ID,
		PostURL:        p.graph.PostURL(run.feed.ID),
		PublishedAt:    now,
		Content:        run.post.Content,
		HasImage:       run.hadImage,
		Note:           run.note,
	}
	if run.scheduledInFuture {
		at := *run.req.ScheduleAt
		rec.ScheduledFor = &at
	}

	// the platform already holds the post; a cancelled request must not
	// keep it out of the ledger
	if err := p.ledger.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.Error("failed to record published post",
			zap.String("post_id", rec.PostID),
			zap.String("fb_post_id", rec.PlatformPostID),
			zap.Error(err))
		if errors.Is(err, repository.ErrPersist) {
			return p.fail(run, fmt.Errorf("post %s delivered as %s but not saved: %w", rec.PostID, rec.PlatformPostID, err))
		}
		return p.fail(run, fromRepository(err, "post "+rec.PostID))
	}

	logger.Info("published post",
		zap.String("post_id", rec.PostID),
		zap.String("page_id", rec.PageID),
		zap.String("url", rec.PostURL),
		zap.Bool("has_image", rec.HasImage))

	run.result = &PublishResult{
		PostID:         rec.PostID,
		PlatformPostID: rec.PlatformPostID,
		PostURL:        rec.PostURL,
		Message:        p.successMessage(run),
		Warning:        run.warning,
		HadImage:       rec.HasImage,
		Scheduled:      run.scheduledInFuture,
		Record:         rec,
	}
	return stateDone
}
