package controller

import (
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProgressController struct {
	SyncService *service.ProgressSyncService
}

func NewProgressController(syncService *service.ProgressSyncService) *ProgressController {
	return &ProgressController{SyncService: syncService}
}

// GetMyProgress godoc
// @Summary 我的学习进度
// @Description 当前学习者所有主题的成绩册视图
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.TopicProgress} "成功"
// @Router /api/progress/me [get]
func (c *ProgressController) GetMyProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.SyncService.GetUserProgress(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// GetTopicProgress godoc
// @Summary 单主题进度
// @Tags 进度
// @Produce json
// @Security ApiKeyAuth
// @Param topicId path int true "主题ID"
// @Success 200 {object} util.Response{data=model.TopicProgress} "成功"
// @Failure 404 {object} util.Response "尚无该主题的进度记录"
// @Router /api/progress/topics/{topicId} [get]
func (c *ProgressController) GetTopicProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	topicID := util.MustParseUint(ctx.Param("topicId"))

	progress, err := c.SyncService.GetTopicProgress(ctx.Request.Context(), claims.UserID, topicID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}
