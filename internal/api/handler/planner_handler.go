package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/social-publisher/pkg/response"
)

type planRequest struct {
	Posts         []string `json:"posts" binding:"required,min=1"`
	Frequency     int      `json:"frequency" binding:"gte=0,lte=7"`
	PreferredDays []string `json:"preferred_days" binding:"omitempty,dive,weekday"`
}

type dayRequest struct {
	Post string `json:"post" binding:"required"`
}

// GetPlan
// @Summary Current weekly plan
// @Tags planner
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/planner [get]
func (h *Handler) GetPlan(c *gin.Context) {
	s, err := h.planner.Get(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, s)
}

// AssignPlan
// @Summary Spread posts over the week
// @Tags planner
// @Accept json
// @Produce json
// @Param request body planRequest true "posts and preferences"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.Response
// @Router /api/v1/planner [post]
func (h *Handler) AssignPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s, err := h.planner.Assign(c.Request.Context(), req.Posts, req.Frequency, req.PreferredDays)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, s)
}

// UpdatePlanDay
// @Summary Set the post for one day
// @Tags planner
// @Accept json
// @Produce json
// @Param day path string true "weekday"
// @Param request body dayRequest true "post text"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/planner/{day} [put]
func (h *Handler) UpdatePlanDay(c *gin.Context) {
	var req dayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	day := c.Param("day")
	if err := h.planner.Update(c.Request.Context(), day, req.Post); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"day": day, "post": req.Post})
}

// DeletePlanDay
// @Summary Free one day
// @Tags planner
// @Param day path string true "weekday"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/planner/{day} [delete]
func (h *Handler) DeletePlanDay(c *gin.Context) {
	day := c.Param("day")
	removed, err := h.planner.Delete(c.Request.Context(), day)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"day": day, "removed": removed})
}
