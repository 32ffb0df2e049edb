package controller

import (
	"learnboard_backend/internal/service"
	"learnboard_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.CourseService.ListCourses(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情，包含当前用户的进度和证书
// @Tags 课程
// @Produce json
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	detail, err := c.CourseService.GetCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 报名课程
// @Tags 课程
// @Produce json
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	rec, err := c.CourseService.Enroll(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}

// @Summary 完成课时
// @Tags 课程
// @Produce json
// @Router /api/courses/{id}/lessons/{index}/complete [post]
func (c *CourseController) CompleteLesson(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		util.BadRequest(ctx, "lesson index must be an integer")
		return
	}

	rec, err := c.CourseService.CompleteLesson(ctx.Request.Context(), ctx.Param("id"), index)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, rec)
}
