// Package graph is a small client for the Graph API endpoints used to verify
// pages, upload photos and create feed posts.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

const maxResponseBytes = 1 << 20

var tracer = otel.Tracer("github.com/d60-Lab/social-publisher/internal/graph")

type Config struct {
	// Endpoint is the versioned API root, e.g. https://graph.facebook.com/v23.0.
	Endpoint      string
	PostURLBase   string
	Timeout       time.Duration
	RateLimit     float64
	RateBurst     int
	VerifyRetries int
}

// rawResponse is a fully read response; bodies never outlive an attempt so
// retried attempts cannot leak connections.
type rawResponse struct {
	status int
	body   []byte
}

// retryableStatus marks a verification response worth another attempt.
type retryableStatus struct{ resp *rawResponse }

func (e *retryableStatus) Error() string {
	return "graph: retryable status " + strconv.Itoa(e.resp.status)
}

type Client struct {
	http        *http.Client
	endpoint    string
	postURLBase string
	limiter     *rate.Limiter
	verify      failsafe.Executor[*rawResponse]
	write       failsafe.Executor[*rawResponse]
	breaker     circuitbreaker.CircuitBreaker[*rawResponse]
	metrics     *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func NewClient(cfg Config, m *metrics.Metrics, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PostURLBase == "" {
		cfg.PostURLBase = "https://www.facebook.com"
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}
	if cfg.VerifyRetries < 0 {
		cfg.VerifyRetries = 0
	}

	breaker := circuitbreaker.NewBuilder[*rawResponse]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(r *rawResponse, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.status >= 500
		}).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			logger.Warn("graph circuit breaker state change",
				zap.Any("from", e.OldState),
				zap.Any("to", e.NewState))
		}).
		Build()

	retry := retrypolicy.NewBuilder[*rawResponse]().
		WithBackoff(200*time.Millisecond, 3*time.Second).
		WithMaxRetries(cfg.VerifyRetries).
		WithJitterFactor(0.1).
		HandleIf(func(_ *rawResponse, err error) bool { return err != nil }).
		Build()

	c := &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		postURLBase: strings.TrimRight(cfg.PostURLBase, "/"),
		limiter:     rate.NewLimiter(limit, cfg.RateBurst),
		verify:      failsafe.With[*rawResponse](retry, breaker),
		write:       failsafe.With[*rawResponse](breaker),
		breaker:     breaker,
		metrics:     m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PostURL is the public URL of a platform post.
func (c *Client) PostURL(platformPostID string) string {
	return c.postURLBase + "/" + platformPostID
}

// VerifyPage fetches the page's own identity with the supplied token. Any
// non-success answer is returned as *StatusError.
func (c *Client) VerifyPage(ctx context.Context, pageID, accessToken string) (*PageInfo, error) {
	ctx, span := tracer.Start(ctx, "graph.VerifyPage")
	defer span.End()
	span.SetAttributes(attribute.String("page_id", pageID))

	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "id,name,access_token")
	target := c.endpoint + "/" + url.PathEscape(pageID) + "?" + q.Encode()

	resp, err := c.verify.WithContext(ctx).Get(func() (*rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		r, err := c.do(ctx, "verify", req)
		if err != nil {
			return nil, err
		}
		if r.status >= 500 || r.status == http.StatusTooManyRequests {
			return r, &retryableStatus{resp: r}
		}
		return r, nil
	})
	var rs *retryableStatus
	if errors.As(err, &rs) {
		resp, err = rs.resp, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("graph: verify page: %w", err)
	}

	var body struct {
		PageInfo
		Error *APIError `json:"error"`
	}
	_ = json.Unmarshal(resp.body, &body)
	if resp.status != http.StatusOK || body.Error != nil {
		span.SetStatus(codes.Error, "rejected")
		return nil, &StatusError{StatusCode: resp.status, API: body.Error}
	}
	info := body.PageInfo
	if info.ID == "" {
		info.ID = pageID
	}
	return &info, nil
}

// UploadPhoto uploads an unpublished photo and returns its media handle in
// Result.ID. The upload is never retried.
func (c *Client) UploadPhoto(ctx context.Context, pageID, accessToken string, photo Photo) (*Result, error) {
	ctx, span := tracer.Start(ctx, "graph.UploadPhoto")
	defer span.End()
	span.SetAttributes(attribute.String("page_id", pageID), attribute.Int("image_bytes", len(photo.Image)))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"access_token", accessToken},
		{"caption", photo.Caption},
		{"published", "false"},
	}
	if photo.ScheduledAt != nil {
		fields = append(fields, [2]string{"scheduled_publish_time", strconv.FormatInt(photo.ScheduledAt.Unix(), 10)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(photo.Image); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.post(ctx, "photos", pageID, w.FormDataContentType(), buf.Bytes())
}

// CreateFeedPost publishes (or schedules) a feed post. Result.ID carries the
// platform post id on success.
func (c *Client) CreateFeedPost(ctx context.Context, pageID, accessToken string, post FeedPost) (*Result, error) {
	ctx, span := tracer.Start(ctx, "graph.CreateFeedPost")
	defer span.End()
	span.SetAttributes(
		attribute.String("page_id", pageID),
		attribute.Int("media_count", len(post.MediaIDs)),
		attribute.Bool("scheduled", post.ScheduledAt != nil),
	)

	form := url.Values{}
	form.Set("access_token", accessToken)
	form.Set("message", post.Message)
	if len(post.MediaIDs) > 0 {
		media := make([]map[string]string, 0, len(post.MediaIDs))
		for _, id := range post.MediaIDs {
			media = append(media, map[string]string{"media_fbid": id})
		}
		raw, err := json.Marshal(media)
		if err != nil {
			return nil, err
		}
		form.Set("attached_media", string(raw))
	}
	if post.ScheduledAt != nil {
		form.Set("published", "false")
		form.Set("scheduled_publish_time", strconv.FormatInt(post.ScheduledAt.Unix(), 10))
	}

	return c.post(ctx, "feed", pageID, "application/x-www-form-urlencoded", []byte(form.Encode()))
}

func (c *Client) post(ctx context.Context, edge, pageID, contentType string, body []byte) (*Result, error) {
	target := c.endpoint + "/" + url.PathEscape(pageID) + "/" + edge
	resp, err := c.write.WithContext(ctx).Get(func() (*rawResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return c.do(ctx, edge, req)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: %s: %w", edge, err)
	}
	return parseResult(resp), nil
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) (*rawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveGraph(op, "error", time.Since(start))
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	c.metrics.ObserveGraph(op, strconv.Itoa(res.StatusCode), time.Since(start))
	if err != nil {
		return nil, err
	}
	logger.Debug("graph response", zap.String("op", op), zap.Int("status", res.StatusCode))
	return &rawResponse{status: res.StatusCode, body: data}, nil
}

func parseResult(r *rawResponse) *Result {
	var body struct {
		ID    string    `json:"id"`
		Error *APIError `json:"error"`
	}
	res := &Result{StatusCode: r.status}
	if err := json.Unmarshal(r.body, &body); err != nil {
		if r.status < 200 || r.status >= 300 {
			res.Error = &APIError{Message: strings.TrimSpace(string(r.body))}
		}
		return res
	}
	res.ID = body.ID
	res.Error = body.Error
	if res.Error == nil && (r.status < 200 || r.status >= 300) {
		res.Error = &APIError{Message: http.StatusText(r.status)}
	}
	return res
}
