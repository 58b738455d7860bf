package controller

import (
	"errors"
	"net/http"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ScormController 课件帧调用的 RTE 协议端点。
// 协议端点返回裸协议字符串（"true"/"false"、元素值、错误码），
// 不套 JSON 信封：课件侧 API 适配层按 SCORM 规范处理字面量。
// launch 与交互记录端点是普通业务接口，照常用信封。
type ScormController struct {
	RTEService         *service.RTEService
	InteractionService *service.InteractionService
}

func NewScormController(rteService *service.RTEService, interactionService *service.InteractionService) *ScormController {
	return &ScormController{
		RTEService:         rteService,
		InteractionService: interactionService,
	}
}

// Launch godoc
// @Summary 启动课件尝试
// @Description 上一次尝试未到终态则继续，否则创建新编号的尝试
// @Tags SCORM
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课件包ID"
// @Success 200 {object} util.Response{data=model.ScormAttempt} "成功"
// @Failure 404 {object} util.Response "课件包不存在"
// @Router /api/scorm/packages/{id}/launch [post]
func (c *ScormController) Launch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	packageID := util.MustParseUint(ctx.Param("id"))

	attempt, err := c.RTEService.LaunchAttempt(ctx.Request.Context(), claims.UserID, packageID)
	if err != nil {
		if errors.Is(err, util.ErrPackageNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, attempt)
}

// Initialize godoc
// @Summary RTE Initialize
// @Description 协议端点，返回字面量 "true"/"false"
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Success 200 {string} string "true"
// @Router /api/scorm/attempts/{id}/initialize [post]
func (c *ScormController) Initialize(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	ctx.String(http.StatusOK, c.RTEService.Initialize(ctx.Request.Context(), userID, attemptID))
}

// GetValue godoc
// @Summary RTE GetValue
// @Description 协议端点，返回元素值（未知元素返回空串）
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param element query string true "CMI 元素路径"
// @Success 200 {string} string "元素值"
// @Router /api/scorm/attempts/{id}/value [get]
func (c *ScormController) GetValue(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	element := ctx.Query("element")
	ctx.String(http.StatusOK, c.RTEService.GetValue(ctx.Request.Context(), userID, attemptID, element))
}

// SetValueRequest RTE SetValue 请求体
type SetValueRequest struct {
	Element string `json:"element" binding:"required"`
	Value   string `json:"value"`
}

// SetValue godoc
// @Summary RTE SetValue
// @Description 协议端点，返回字面量 "true"/"false"
// @Tags SCORM
// @Accept json
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param body body SetValueRequest true "元素与值"
// @Success 200 {string} string "true"
// @Router /api/scorm/attempts/{id}/value [post]
func (c *ScormController) SetValue(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	var req SetValueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		// 协议端点连参数错误都说协议话
		ctx.String(http.StatusOK, "false")
		return
	}
	ctx.String(http.StatusOK, c.RTEService.SetValue(ctx.Request.Context(), userID, attemptID, req.Element, req.Value))
}

// Commit godoc
// @Summary RTE Commit
// @Description 协议端点，持久化当前 CMI 状态并同步进度
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Success 200 {string} string "true"
// @Router /api/scorm/attempts/{id}/commit [post]
func (c *ScormController) Commit(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	ctx.String(http.StatusOK, c.RTEService.Commit(ctx.Request.Context(), userID, attemptID))
}

// Terminate godoc
// @Summary RTE Terminate
// @Description 协议端点，结束会话；之后的任何调用都返回错误码 301
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Success 200 {string} string "true"
// @Router /api/scorm/attempts/{id}/terminate [post]
func (c *ScormController) Terminate(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	ctx.String(http.StatusOK, c.RTEService.Terminate(ctx.Request.Context(), userID, attemptID))
}

// GetLastError godoc
// @Summary RTE GetLastError
// @Description 协议端点，返回最近一次调用的错误码
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Success 200 {string} string "0"
// @Router /api/scorm/attempts/{id}/last-error [get]
func (c *ScormController) GetLastError(ctx *gin.Context) {
	userID, attemptID, ok := c.protocolIDs(ctx)
	if !ok {
		return
	}
	ctx.String(http.StatusOK, c.RTEService.GetLastError(ctx.Request.Context(), userID, attemptID))
}

// GetErrorString godoc
// @Summary RTE GetErrorString
// @Description 协议端点，错误码转可读文本，未知码返回空串
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param code query string true "错误码"
// @Success 200 {string} string "No error"
// @Router /api/scorm/attempts/{id}/error-string [get]
func (c *ScormController) GetErrorString(ctx *gin.Context) {
	ctx.String(http.StatusOK, c.RTEService.GetErrorString(ctx.Query("code")))
}

// GetDiagnostic godoc
// @Summary RTE GetDiagnostic
// @Description 协议端点，诊断文本
// @Tags SCORM
// @Produce plain
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param code query string true "错误码"
// @Success 200 {string} string "No error"
// @Router /api/scorm/attempts/{id}/diagnostic [get]
func (c *ScormController) GetDiagnostic(ctx *gin.Context) {
	ctx.String(http.StatusOK, c.RTEService.GetDiagnostic(ctx.Query("code")))
}

// RecordInteraction godoc
// @Summary 记录交互明细
// @Description 课件上报 cmi.interactions.n 的扁平化载荷，字段按宽进原则解析
// @Tags SCORM
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param body body service.InteractionPayload true "交互载荷"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/scorm/attempts/{id}/interactions [post]
func (c *ScormController) RecordInteraction(ctx *gin.Context) {
	attempt, ok := c.ownedAttempt(ctx)
	if !ok {
		return
	}
	var payload service.InteractionPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.InteractionService.RecordInteraction(attempt.ID, &payload); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"recorded": true})
}

// RecordObjective godoc
// @Summary 记录目标明细
// @Tags SCORM
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param body body service.ObjectivePayload true "目标载荷"
// @Success 200 {object} util.Response "成功"
// @Router /api/scorm/attempts/{id}/objectives [post]
func (c *ScormController) RecordObjective(ctx *gin.Context) {
	attempt, ok := c.ownedAttempt(ctx)
	if !ok {
		return
	}
	var payload service.ObjectivePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.InteractionService.RecordObjective(attempt.ID, &payload); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"recorded": true})
}

// RecordComment godoc
// @Summary 记录学习者备注
// @Tags SCORM
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "尝试ID"
// @Param body body service.CommentPayload true "备注载荷"
// @Success 200 {object} util.Response "成功"
// @Router /api/scorm/attempts/{id}/comments [post]
func (c *ScormController) RecordComment(ctx *gin.Context) {
	attempt, ok := c.ownedAttempt(ctx)
	if !ok {
		return
	}
	var payload service.CommentPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.InteractionService.RecordComment(attempt.ID, &payload); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"recorded": true})
}

// protocolIDs 协议端点的身份解析，失败也按协议语义回裸字符串
func (c *ScormController) protocolIDs(ctx *gin.Context) (userID, attemptID uint, ok bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		ctx.String(http.StatusUnauthorized, "false")
		return 0, 0, false
	}
	return claims.UserID, util.MustParseUint(ctx.Param("id")), true
}

// ownedAttempt 交互记录端点用的归属校验读取
func (c *ScormController) ownedAttempt(ctx *gin.Context) (*model.ScormAttempt, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	attemptID := util.MustParseUint(ctx.Param("id"))

	attempt, err := c.RTEService.Attempt(claims.UserID, attemptID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAttemptNotOwned):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}
	return attempt, true
}
