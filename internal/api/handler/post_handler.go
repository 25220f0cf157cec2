package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-publisher/internal/service"
	"github.com/d60-Lab/social-publisher/pkg/response"
)

type createPostRequest struct {
	Content string `json:"content" binding:"required"`
	PageID  string `json:"page_id" binding:"omitempty,graphid"`
}

type updatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type generatePostRequest struct {
	PageID      string `json:"page_id" binding:"omitempty,graphid"`
	Industry    string `json:"industry"`
	Tone        string `json:"tone" binding:"omitempty,oneof=professional witty friendly"`
	ContentType string `json:"content_type"`
}

// CreatePost stores a post ready for publishing
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "post content"
// @Success 200 {object} response.Response{data=postView}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.posts.Create(c.Request.Context(), req.Content, req.PageID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, viewPost(p))
}

// GeneratePost writes template text for an industry and stores it as a draft
// @Summary Generate a draft post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body generatePostRequest true "generation options"
// @Success 200 {object} response.Response{data=postView}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts/generate [post]
func (h *Handler) GeneratePost(c *gin.Context) {
	var req generatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.posts.Generate(c.Request.Context(), service.GenerateRequest{
		PageID:      req.PageID,
		Industry:    req.Industry,
		Tone:        req.Tone,
		ContentType: req.ContentType,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, viewPost(p))
}

// ListPosts
// @Summary List stored posts
// @Tags posts
// @Param page query int false "page" default(1)
// @Param page_size query int false "page size" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	list, total, err := h.posts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]postView, 0, len(list))
	for _, p := range list {
		views = append(views, viewPost(p))
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "total": total, "list": views})
}

// UpdatePost replaces the text of an unpublished post
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "post id"
// @Param request body updatePostRequest true "new content"
// @Success 200 {object} response.Response{data=postView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.posts.Update(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, viewPost(p))
}

// PublishPost delivers a stored post to its page
// @Summary Publish a post
// @Description Uploads the optional image, then creates the feed post. A scheduled_time in the future schedules the post instead.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "post id"
// @Param image formData file false "image to attach"
// @Param scheduled_time formData string false "YYYY-MM-DDTHH:MM or RFC3339"
// @Param page_id formData string false "page used when neither the configuration nor the post names one"
// @Success 200 {object} response.Response{data=service.PublishResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /api/v1/posts/{id}/publish [post]
func (h *Handler) PublishPost(c *gin.Context) {
	req := service.PublishRequest{
		PostID: c.Param("id"),
		PageID: strings.TrimSpace(c.PostForm("page_id")),
	}

	if raw := strings.TrimSpace(c.PostForm("scheduled_time")); raw != "" {
		at, err := parseScheduleTime(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		req.ScheduleAt = &at
	}

	image, err := h.readImage(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Image = image

	res, err := h.publisher.Publish(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, res)
}

// ListPublished
// @Summary List published posts
// @Tags posts
// @Success 200 {object} response.Response{data=[]model.PublishedRecord}
// @Router /api/v1/published [get]
func (h *Handler) ListPublished(c *gin.Context) {
	recs, err := h.posts.ListPublished(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, recs)
}

// readImage returns nil when the request carries no image part.
func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid image upload: %w", err)
	}
	if fh.Size > h.maxImage {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImage)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("invalid image upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxImage+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > h.maxImage {
		return nil, fmt.Errorf("image exceeds %d bytes", h.maxImage)
	}
	return data, nil
}

const scheduleLayout = "2006-01-02T15:04"

// parseScheduleTime accepts the browser datetime-local form, read in local
// time, or a full RFC3339 timestamp.
func parseScheduleTime(raw string) (time.Time, error) {
	if t, err := time.ParseInLocation(scheduleLayout, raw, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid scheduled_time %q, expected YYYY-MM-DDTHH:MM", raw)
}
