package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-publisher/internal/content"
	"github.com/d60-Lab/social-publisher/pkg/response"
)

type generateContentRequest struct {
	Profile   content.Profile `json:"business_profile"`
	Tone      string          `json:"tone"`
	PostType  string          `json:"post_type" binding:"omitempty,oneof=promo tip update"`
	Frequency int             `json:"frequency" binding:"gte=0,lte=7"`
}

type newsRequest struct {
	Industry string `json:"industry"`
}

type businessRequest struct {
	URL string `json:"url" binding:"omitempty,url"`
}

// GenerateContent
// @Summary Generate a batch of posts for a business profile
// @Tags content
// @Accept json
// @Produce json
// @Param request body generateContentRequest true "profile and preferences"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/content/generate [post]
func (h *Handler) GenerateContent(c *gin.Context) {
	var req generateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	posts, err := h.content.GenerateBatch(c.Request.Context(), req.Profile, req.Tone, req.PostType, req.Frequency)
	if err != nil {
		fail(c, err)
		return
	}
	if posts == nil {
		posts = []string{}
	}
	response.Success(c, gin.H{"posts": posts})
}

// News
// @Summary Latest headlines for an industry
// @Tags content
// @Accept json
// @Produce json
// @Param request body newsRequest true "industry"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/content/news [post]
func (h *Handler) News(c *gin.Context) {
	var req newsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	headlines, err := h.content.News(c.Request.Context(), req.Industry)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"news": headlines})
}

// AnalyzeBusiness
// @Summary Infer a business profile from its website
// @Tags content
// @Accept json
// @Produce json
// @Param request body businessRequest true "website url"
// @Success 200 {object} response.Response{data=content.BusinessInfo}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/content/business [post]
func (h *Handler) AnalyzeBusiness(c *gin.Context) {
	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	info, err := h.content.AnalyzeBusiness(c.Request.Context(), req.URL)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, info)
}
