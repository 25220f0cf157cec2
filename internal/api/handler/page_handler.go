package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-publisher/pkg/response"
)

type connectPageRequest struct {
	PageID      string `json:"page_id" binding:"required,graphid"`
	AccessToken string `json:"access_token" binding:"required"`
}

// ConnectPage verifies a page token with the platform and stores it
// @Summary Connect a page
// @Tags pages
// @Accept json
// @Produce json
// @Param request body connectPageRequest true "page credentials"
// @Success 200 {object} response.Response{data=pageView}
// @Failure 400 {object} response.Response
// @Router /api/v1/pages [post]
func (h *Handler) ConnectPage(c *gin.Context) {
	var req connectPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	page, err := h.pages.Connect(c.Request.Context(), req.PageID, req.AccessToken)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, viewPage(page))
}

// ListPages
// @Summary List connected pages
// @Tags pages
// @Success 200 {object} response.Response{data=[]pageView}
// @Router /api/v1/pages [get]
func (h *Handler) ListPages(c *gin.Context) {
	pages, err := h.pages.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	views := make([]pageView, 0, len(pages))
	for _, p := range pages {
		views = append(views, viewPage(p))
	}
	response.Success(c, views)
}
