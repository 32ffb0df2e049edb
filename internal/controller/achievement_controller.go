package controller

import (
	"learnboard_backend/internal/service"
	"learnboard_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
	AwardService       *service.AwardService
	LeaderboardService *service.LeaderboardService
}

func NewAchievementController(
	achievementService *service.AchievementService,
	awardService *service.AwardService,
	leaderboardService *service.LeaderboardService,
) *AchievementController {
	return &AchievementController{
		AchievementService: achievementService,
		AwardService:       awardService,
		LeaderboardService: leaderboardService,
	}
}

// @Summary 获取用户成就
// @Description 获取用户的徽章、证书和积分，同时在后台检查新完成的课程
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/achievements [get]
func (c *AchievementController) GetUserAchievements(ctx *gin.Context) {
	session := util.GetSessionFromContext(ctx)
	if session == nil {
		util.Unauthorized(ctx)
		return
	}

	// 后台补发徽章和证书，不阻塞本次读取
	if c.AwardService.ScanOnView() {
		c.AwardService.ScanInBackground(session.UserID)
	}

	achievements, err := c.AchievementService.GetUserAchievements(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, achievements)
}

// @Summary 检查并发放成就
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/scan [post]
func (c *AchievementController) Scan(ctx *gin.Context) {
	result, err := c.AwardService.Scan(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 获取排行榜
// @Tags 成就系统
// @Produce json
// @Security BearerAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response
// @Router /api/achievements/leaderboard [get]
func (c *AchievementController) GetLeaderboard(ctx *gin.Context) {
	// 0 表示使用配置的默认值
	limit, err := util.QueryInt(ctx, "limit", 0)
	if err != nil {
		util.BadRequest(ctx, "limit must be an integer")
		return
	}

	leaderboard, err := c.LeaderboardService.GetLeaderboard(ctx.Request.Context(), limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}
