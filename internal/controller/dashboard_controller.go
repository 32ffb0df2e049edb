package controller

import (
	"learnboard_backend/internal/service"
	"learnboard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	ProgressService  *service.ProgressService
}

func NewDashboardController(dashboardService *service.DashboardService, progressService *service.ProgressService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		ProgressService:  progressService,
	}
}

// @Summary 获取仪表盘数据
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	summary, err := c.DashboardService.GetSummary(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 获取每周学习进度
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/dashboard/weekly-progress [get]
func (c *DashboardController) GetWeeklyProgress(ctx *gin.Context) {
	buckets, err := c.DashboardService.GetWeeklyProgress(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, buckets)
}

func (c *DashboardController) GetProgress(ctx *gin.Context) {
	progress, err := c.ProgressService.GetProgress(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

type progressRequest struct {
	Percentage  *int `json:"progressPercentage" binding:"required"`
	LessonIndex *int `json:"currentLessonIndex"`
}

// @Summary 更新课程进度
// @Tags 仪表盘
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /api/progress/{courseId} [put]
func (c *DashboardController) UpdateProgress(ctx *gin.Context) {
	var req progressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rec, err := c.ProgressService.UpsertProgress(ctx.Request.Context(), ctx.Param("courseId"), *req.Percentage, req.LessonIndex)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}
