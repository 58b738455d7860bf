package controller

import (
	"errors"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/service"
	"scorm_lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PackageController struct {
	PackageService *service.PackageService
}

func NewPackageController(packageService *service.PackageService) *PackageController {
	return &PackageController{PackageService: packageService}
}

// RegisterPackageRequest 课件包登记请求
// swagger:model RegisterPackageRequest
type RegisterPackageRequest struct {
	TopicID      uint     `json:"topicId" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	FileName     string   `json:"fileName" binding:"required"`
	Version      string   `json:"version" binding:"required,oneof=1.2 2004"`
	MasteryScore *float64 `json:"masteryScore"`
	LaunchPath   string   `json:"launchPath"`
	URL          string   `json:"url"`
}

// Register godoc
// @Summary 登记课件包
// @Description 在主题下登记一个已上传的 SCORM 课件包
// @Tags 课件包
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RegisterPackageRequest true "课件包信息"
// @Success 201 {object} util.Response{data=model.ContentPackage} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "主题不存在"
// @Router /api/scorm/packages [post]
func (c *PackageController) Register(ctx *gin.Context) {
	var req RegisterPackageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pkg := &model.ContentPackage{
		TopicID:      req.TopicID,
		Title:        req.Title,
		FileName:     req.FileName,
		Version:      model.ScormVersion(req.Version),
		MasteryScore: req.MasteryScore,
		LaunchPath:   req.LaunchPath,
		URL:          req.URL,
	}

	if err := c.PackageService.Register(ctx.Request.Context(), pkg); err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidScormVer):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrTopicNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, pkg)
}

// Upload godoc
// @Summary 上传课件包归档
// @Description 上传 zip 格式的课件包，返回存储访问 URL
// @Tags 课件包
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "zip 归档"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件格式错误"
// @Router /api/scorm/packages/upload [post]
func (c *PackageController) Upload(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	url, err := c.PackageService.UploadArchive(ctx.Request.Context(), file)
	if err != nil {
		if errors.Is(err, util.ErrInvalidArchiveExt) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"url": url, "fileName": file.Filename})
}

// Get godoc
// @Summary 查询课件包
// @Tags 课件包
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课件包ID"
// @Success 200 {object} util.Response{data=model.ContentPackage} "成功"
// @Failure 404 {object} util.Response "课件包不存在"
// @Router /api/scorm/packages/{id} [get]
func (c *PackageController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	pkg, err := c.PackageService.GetPackage(ctx.Request.Context(), id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, pkg)
}

// ListByTopic godoc
// @Summary 列出主题下的课件包
// @Tags 课件包
// @Produce json
// @Security ApiKeyAuth
// @Param topicId path int true "主题ID"
// @Success 200 {object} util.Response{data=[]model.ContentPackage} "成功"
// @Router /api/topics/{topicId}/packages [get]
func (c *PackageController) ListByTopic(ctx *gin.Context) {
	topicID := util.MustParseUint(ctx.Param("topicId"))
	packages, err := c.PackageService.ListByTopic(topicID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, packages)
}
