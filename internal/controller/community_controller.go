package controller

import (
	"learnboard_backend/internal/service"
	"learnboard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CommunityController struct {
	CommunityService *service.CommunityService
}

func NewCommunityController(communityService *service.CommunityService) *CommunityController {
	return &CommunityController{CommunityService: communityService}
}

// @Summary 讨论列表
// @Tags 社区
// @Produce json
// @Router /api/community/discussions [get]
func (c *CommunityController) ListDiscussions(ctx *gin.Context) {
	discussions, err := c.CommunityService.ListDiscussions(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, discussions)
}

// @Summary 发起讨论
// @Tags 社区
// @Accept json
// @Produce json
// @Router /api/community/discussions [post]
func (c *CommunityController) CreateDiscussion(ctx *gin.Context) {
	var req service.DiscussionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	d, err := c.CommunityService.CreateDiscussion(ctx.Request.Context(), req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, d)
}

// @Summary 即将开始的活动
// @Tags 社区
// @Produce json
// @Router /api/community/events [get]
func (c *CommunityController) ListEvents(ctx *gin.Context) {
	events, err := c.CommunityService.ListUpcomingEvents(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, events)
}

// @Summary 参加活动
// @Tags 社区
// @Produce json
// @Router /api/community/events/{id}/join [post]
func (c *CommunityController) JoinEvent(ctx *gin.Context) {
	p, err := c.CommunityService.JoinEvent(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, p)
}
