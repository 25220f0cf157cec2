package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/social-publisher/internal/graph"
	"github.com/d60-Lab/social-publisher/internal/model"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/internal/watermark"
)

type fakeGraph struct {
	mu sync.Mutex

	uploads []graph.Photo
	feeds   []graph.FeedPost
	verifs  []string

	uploadRes *graph.Result
	uploadErr error
	feedRes   []*graph.Result
	feedErr   error
	feedDelay time.Duration
	verifyErr error
}

func okResult(id string) *graph.Result { return &graph.Result{ID: id, StatusCode: 200} }

func errResult(status int, msg, userMsg string) *graph.Result {
	return &graph.Result{StatusCode: status, Error: &graph.APIError{Message: msg, UserMessage: userMsg}}
}

func (f *fakeGraph) VerifyPage(_ context.Context, pageID, _ string) (*graph.PageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifs = append(f.verifs, pageID)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &graph.PageInfo{ID: pageID, Name: "Page " + pageID}, nil
}

func (f *fakeGraph) UploadPhoto(_ context.Context, _, _ string, photo graph.Photo) (*graph.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, photo)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadRes == nil {
		return okResult("media-1"), nil
	}
	return f.uploadRes, nil
}

func (f *fakeGraph) CreateFeedPost(_ context.Context, _, _ string, post graph.FeedPost) (*graph.Result, error) {
	if f.feedDelay > 0 {
		time.Sleep(f.feedDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds = append(f.feeds, post)
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	if len(f.feedRes) == 0 {
		return okResult("123"), nil
	}
	res := f.feedRes[0]
	if len(f.feedRes) > 1 {
		f.feedRes = f.feedRes[1:]
	}
	return res, nil
}

func (f *fakeGraph) PostURL(id string) string { return "https://www.facebook.com/" + id }

func (f *fakeGraph) calls() (uploads, feeds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads), len(f.feeds)
}

type stubMarker struct{}

func (stubMarker) Apply(src []byte) watermark.Result {
	return watermark.Result{Data: append([]byte("wm:"), src...), Marker: "m", Applied: true}
}

type fixture struct {
	store *repository.MemoryStore
	pages *repository.MemoryPageStore
	graph *fakeGraph
	pub   *Publisher
}

func newFixture(t *testing.T, defaultPageID string, pageIDs ...string) *fixture {
	t.Helper()
	f := &fixture{
		store: repository.NewMemoryStore(nil),
		pages: repository.NewMemoryPageStore(),
		graph: &fakeGraph{},
	}
	for _, id := range pageIDs {
		require.NoError(t, f.pages.Put(context.Background(), &model.ConnectedPage{ID: id, Name: id, AccessToken: "tok-" + id}))
	}
	f.pub = NewPublisher(PublisherDeps{
		Posts:         f.store,
		Ledger:        f.store,
		Pages:         f.pages,
		Graph:         f.graph,
		Marker:        stubMarker{},
		DefaultPageID: defaultPageID,
	})
	return f
}

func (f *fixture) post(t *testing.T, text, pageID string) *model.Post {
	t.Helper()
	p := &model.Post{Content: text, PageID: pageID}
	require.NoError(t, f.store.Create(context.Background(), p))
	return p
}

func (f *fixture) status(t *testing.T, id string) model.PostStatus {
	t.Helper()
	p, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func (f *fixture) noRecord(t *testing.T, id string) {
	t.Helper()
	_, err := f.store.GetRecord(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPublishTextOnly(t *testing.T) {
	f := newFixture(t, "", "pg1")
	p := f.post(t, "Grand opening!", "pg1")

	res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "123", res.PlatformPostID)
	assert.Equal(t, "https://www.facebook.com/123", res.PostURL)
	assert.Equal(t, msgPublished, res.Message)
	assert.False(t, res.HadImage)
	assert.Empty(t, res.Warning)
	assert.Equal(t, model.PostStatusPublished, f.status(t, p.ID))

	rec, err := f.store.GetRecord(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grand opening!", rec.Content)
	assert.Equal(t, "pg1", rec.PageID)
	assert.Nil(t, rec.ScheduledFor)

	require.Len(t, f.graph.feeds, 1)
	assert.Equal(t, "Grand opening!", f.graph.feeds[0].Message)
	assert.Empty(t, f.graph.feeds[0].MediaIDs)
	assert.Nil(t, f.graph.feeds[0].ScheduledAt)
}

func TestPublishUnknownPost(t *testing.T) {
	f := newFixture(t, "", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: "post_missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	uploads, feeds := f.graph.calls()
	assert.Zero(t, uploads+feeds)

	_, err = f.pub.Publish(context.Background(), PublishRequest{PostID: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPublishInvalidTarget(t *testing.T) {
	cases := []struct {
		name     string
		pages    []string
		postPage string
		override string
	}{
		{name: "no pages connected"},
		{name: "several pages and nothing named", pages: []string{"pg1", "pg2"}},
		{name: "stored page not connected", pages: []string{"pg1"}, postPage: "pg9"},
		{name: "override not connected", pages: []string{"pg1", "pg2"}, override: "pg3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "", tc.pages...)
			p := f.post(t, "hello", tc.postPage)

			_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, PageID: tc.override, Image: []byte("img")})
			assert.ErrorIs(t, err, ErrInvalidTarget)
			uploads, feeds := f.graph.calls()
			assert.Zero(t, uploads+feeds)
			assert.Equal(t, model.PostStatusGenerated, f.status(t, p.ID))
			f.noRecord(t, p.ID)
		})
	}
}

func TestPublishTargetPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		defaultID  string
		postPage   string
		override   string
		pages      []string
		wantPageID string
	}{
		{"configured default wins", "pg1", "pg2", "pg3", []string{"pg1", "pg2", "pg3"}, "pg1"},
		{"stored page beats override", "", "pg2", "pg3", []string{"pg1", "pg2", "pg3"}, "pg2"},
		{"override when post has none", "", "", "pg3", []string{"pg1", "pg2", "pg3"}, "pg3"},
		{"single connected page", "", "", "", []string{"pg1"}, "pg1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.defaultID, tc.pages...)
			p := f.post(t, "hello", tc.postPage)

			res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, PageID: tc.override})
			require.NoError(t, err)
			assert.Equal(t, tc.wantPageID, res.Record.PageID)
		})
	}
}

func TestPublishWithImage(t *testing.T) {
	f := newFixture(t, "", "pg1")
	p := f.post(t, "New menu", "pg1")

	res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("jpeg")})
	require.NoError(t, err)
	assert.True(t, res.HadImage)

	require.Len(t, f.graph.uploads, 1)
	assert.Equal(t, []byte("wm:jpeg"), f.graph.uploads[0].Image)
	assert.Equal(t, "New menu", f.graph.uploads[0].Caption)
	require.Len(t, f.graph.feeds, 1)
	assert.Equal(t, []string{"media-1"}, f.graph.feeds[0].MediaIDs)

	rec, err := f.store.GetRecord(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, rec.HasImage)
}

func TestPublishUploadFallbacks(t *testing.T) {
	cases := []struct {
		name      string
		uploadRes *graph.Result
		uploadErr error
	}{
		{name: "upload rejected", uploadRes: errResult(400, "Invalid image", "")},
		{name: "upload transport error", uploadErr: errors.New("connection reset")},
		{name: "upload without media handle", uploadRes: okResult("")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "", "pg1")
			f.graph.uploadRes, f.graph.uploadErr = tc.uploadRes, tc.uploadErr
			p := f.post(t, "Sale today", "pg1")

			res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("jpeg")})
			require.NoError(t, err)
			assert.False(t, res.HadImage)
			assert.Equal(t, msgPublished, res.Message)

			require.Len(t, f.graph.feeds, 1)
			assert.Empty(t, f.graph.feeds[0].MediaIDs)
			assert.Equal(t, "Sale today", f.graph.feeds[0].Message)

			rec, err := f.store.GetRecord(context.Background(), p.ID)
			require.NoError(t, err)
			assert.False(t, rec.HasImage)
		})
	}
}

func TestPublishDuplicateMediaRetry(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.feedRes = []*graph.Result{
		errResult(400, "Invalid parameter", "This photo was already posted on the page"),
		okResult("456"),
	}
	p := f.post(t, "Fresh bread", "pg1")

	res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("jpeg")})
	require.NoError(t, err)
	assert.Equal(t, "456", res.PlatformPostID)
	assert.Equal(t, msgDuplicateText, res.Message)
	assert.Equal(t, duplicateWarning, res.Warning)
	assert.False(t, res.HadImage)

	require.Len(t, f.graph.feeds, 2)
	assert.Equal(t, []string{"media-1"}, f.graph.feeds[0].MediaIDs)
	assert.Equal(t, "Fresh bread\n\n[Note: Image was previously posted]", f.graph.feeds[1].Message)
	assert.Empty(t, f.graph.feeds[1].MediaIDs)

	rec, err := f.store.GetRecord(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, duplicateNote, rec.Note)
	assert.False(t, rec.HasImage)
	assert.Equal(t, model.PostStatusPublished, f.status(t, p.ID))
}

func TestPublishDuplicateRetryFails(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.feedRes = []*graph.Result{
		errResult(400, "Media already posted", ""),
		errResult(400, "Media already posted", ""),
	}
	p := f.post(t, "Fresh bread", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("jpeg")})
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.ErrorIs(t, err, ErrDuplicateMedia)

	_, feeds := f.graph.calls()
	assert.Equal(t, 2, feeds, "exactly one retry")
	assert.Equal(t, model.PostStatusGenerated, f.status(t, p.ID))
	f.noRecord(t, p.ID)
}

func TestPublishPlatformFailure(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.feedRes = []*graph.Result{errResult(403, "Permissions error", "Page token expired")}
	p := f.post(t, "hi", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	var pe *PublishError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrPublishFailed)
	assert.NotErrorIs(t, err, ErrDuplicateMedia)
	assert.Equal(t, "Failed to publish to Facebook: Permissions error. Page token expired", pe.Error())

	_, feeds := f.graph.calls()
	assert.Equal(t, 1, feeds)
	f.noRecord(t, p.ID)
}

func TestPublishFeedTransportError(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.feedErr = errors.New("dial tcp: timeout")
	p := f.post(t, "hi", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	assert.ErrorIs(t, err, ErrPublishFailed)
	f.noRecord(t, p.ID)
}

func TestPublishSchedule(t *testing.T) {
	f := newFixture(t, "", "pg1")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.pub.now = func() time.Time { return now }

	future := now.Add(24 * time.Hour)
	p := f.post(t, "Tomorrow", "pg1")
	res, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("jpeg"), ScheduleAt: &future})
	require.NoError(t, err)
	assert.Equal(t, msgScheduled, res.Message)
	assert.True(t, res.Scheduled)
	assert.Equal(t, &future, f.graph.uploads[0].ScheduledAt)
	assert.Equal(t, &future, f.graph.feeds[0].ScheduledAt)
	require.NotNil(t, res.Record.ScheduledFor)
	assert.True(t, res.Record.ScheduledFor.Equal(future))
	assert.Equal(t, model.PostStatusPublished, f.status(t, p.ID))

	past := now.Add(-time.Hour)
	q := f.post(t, "Yesterday", "pg1")
	res, err = f.pub.Publish(context.Background(), PublishRequest{PostID: q.ID, ScheduleAt: &past})
	require.NoError(t, err)
	assert.Equal(t, msgPublished, res.Message)
	assert.False(t, res.Scheduled)
	assert.Equal(t, &past, f.graph.feeds[1].ScheduledAt)
}

func TestPublishTwiceRejected(t *testing.T) {
	f := newFixture(t, "", "pg1")
	p := f.post(t, "once", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	require.NoError(t, err)
	_, err = f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	assert.ErrorIs(t, err, ErrAlreadyPublished)

	_, feeds := f.graph.calls()
	assert.Equal(t, 1, feeds)
}

func TestPublishConcurrentSamePost(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.feedDelay = 20 * time.Millisecond
	p := f.post(t, "race", "pg1")

	const n = 6
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyPublished):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, rejected)
	_, feeds := f.graph.calls()
	assert.Equal(t, 1, feeds)

	recs, err := f.store.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestPublishPersistFailureKeepsLedger(t *testing.T) {
	fail := false
	store := repository.NewMemoryStore(func(repository.PostDocument) error {
		if fail {
			return errors.New("read-only filesystem")
		}
		return nil
	})
	pages := repository.NewMemoryPageStore()
	require.NoError(t, pages.Put(context.Background(), &model.ConnectedPage{ID: "pg1", AccessToken: "t"}))
	pub := NewPublisher(PublisherDeps{Posts: store, Ledger: store, Pages: pages, Graph: &fakeGraph{}, Marker: stubMarker{}})

	p := &model.Post{Content: "x", PageID: "pg1"}
	require.NoError(t, store.Create(context.Background(), p))
	fail = true

	_, err := pub.Publish(context.Background(), PublishRequest{PostID: p.ID})
	assert.ErrorIs(t, err, repository.ErrPersist)
	_, err = store.GetRecord(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestPublishWatermarkPassthrough(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.pub.marker = watermark.New(95, 0, nil)
	p := f.post(t, "raw", "pg1")

	_, err := f.pub.Publish(context.Background(), PublishRequest{PostID: p.ID, Image: []byte("not an image")})
	require.NoError(t, err)
	require.Len(t, f.graph.uploads, 1)
	assert.Equal(t, []byte("not an image"), f.graph.uploads[0].Image)
}

func TestStateTrail(t *testing.T) {
	f := newFixture(t, "", "pg1")
	f.graph.uploadRes = errResult(500, "boom", "")
	f.graph.feedRes = []*graph.Result{errResult(400, "already posted", ""), okResult("9")}
	p := f.post(t, "trail", "pg1")

	run := &publishRun{req: PublishRequest{PostID: p.ID, Image: []byte("x")}, post: p}
	f.pub.drive(context.Background(), run)
	require.NoError(t, run.err)
	assert.Equal(t, []publishState{
		stateResolveTarget,
		stateHasImage,
		stateUploadFailed,
		statePublishAttempted,
		stateDuplicateRetry,
		statePublishAttempted,
		stateRecordSuccess,
		stateDone,
	}, run.trail)
	assert.Equal(t, "duplicate_retry", stateDuplicateRetry.String())
}
