package service

import (
	"strings"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// AuthoringTool 从包文件名识别出的课件制作工具
type AuthoringTool string

const (
	ToolStoryline AuthoringTool = "storyline"
	ToolCaptivate AuthoringTool = "captivate"
	ToolLectora   AuthoringTool = "lectora"
	ToolGeneric   AuthoringTool = "generic"
)

// ResumeService 恢复决议器：Initialize 前决定 entry 取值和要预置的 CMI 字段。
// 各工具的书签产物参差不齐（有的只写 suspend_data，有的状态字段是脏的），
// 这里统一兜住，决议过程永不报错，出问题一律退回重新开始。
type ResumeService struct{}

func NewResumeService() *ResumeService {
	return &ResumeService{}
}

// DetectTool 文件名里带工具名子串就认，认不出按 generic 处理
func (s *ResumeService) DetectTool(fileName string) AuthoringTool {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, string(ToolStoryline)):
		return ToolStoryline
	case strings.Contains(name, string(ToolCaptivate)):
		return ToolCaptivate
	case strings.Contains(name, string(ToolLectora)):
		return ToolLectora
	default:
		return ToolGeneric
	}
}

// Seed 实现 scorm.SeedFunc
func (s *ResumeService) Seed(a *model.ScormAttempt, pkg *model.ContentPackage, dm scorm.DataModel) (seed scorm.Seed) {
	// 决议失败不能打断学习者，退回重新开始并记日志
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("resume resolution failed, falling back to ab-initio",
				zap.Uint("attemptId", a.ID),
				zap.Any("panic", r))
			seed = scorm.Seed{Entry: dm.EntryAbInitio()}
		}
	}()

	// 终态的尝试不可恢复
	if a.LessonStatus.Terminal() {
		return scorm.Seed{Entry: dm.EntryAbInitio()}
	}

	tool := s.DetectTool(pkg.FileName)

	if !a.HasBookmark() {
		// 软恢复：没有书签证据但也不在终态时仍按 resume 进入，
		// 只预置基线身份/状态字段，由课件自己找续播点。
		// 部分工具（尤其 storyline）把书签整个记在自己内部，宿主端看不到。
		logger.Log.Debug("soft resume without bookmark evidence",
			zap.Uint("attemptId", a.ID),
			zap.String("tool", string(tool)))
		return scorm.Seed{
			Entry:  model.EntryResume,
			Fields: s.baselineFields(a, dm),
		}
	}

	switch tool {
	case ToolStoryline, ToolCaptivate, ToolLectora:
		// 目前与通用逻辑一致，留作各工具后续差异化的接缝
		logger.Log.Debug("resuming authoring-tool package",
			zap.Uint("attemptId", a.ID),
			zap.String("tool", string(tool)))
		return s.bookmarkSeed(a, dm)
	default:
		return s.bookmarkSeed(a, dm)
	}
}

// bookmarkSeed 把持久化的书签拷进版本对应的 CMI 键
func (s *ResumeService) bookmarkSeed(a *model.ScormAttempt, dm scorm.DataModel) scorm.Seed {
	fields := make([]scorm.KV, 0, 4)

	location := a.LessonLocation
	if dm.Version() == model.Scorm2004 {
		// 只有 suspend_data 没有 location 时合成占位书签，
		// 部分课件要求 location 非空才肯走续播分支
		if location == "" && a.SuspendData != "" {
			location = "resume"
		}
		// 有书签就说明学习者真实交互过，强制纠正可能不正确的历史状态
		fields = append(fields,
			scorm.KV{Key: dm.Element(scorm.FieldCompletionStatus), Value: "incomplete"},
			scorm.KV{Key: dm.Element(scorm.FieldSuccessStatus), Value: "unknown"},
		)
	}

	if location != "" {
		fields = append(fields, scorm.KV{Key: dm.Element(scorm.FieldLocation), Value: location})
	}
	if a.SuspendData != "" {
		fields = append(fields, scorm.KV{Key: dm.Element(scorm.FieldSuspendData), Value: a.SuspendData})
	}

	return scorm.Seed{Entry: model.EntryResume, Fields: fields}
}

// baselineFields 软恢复时只回写当前状态，不带位置/挂起数据
func (s *ResumeService) baselineFields(a *model.ScormAttempt, dm scorm.DataModel) []scorm.KV {
	if dm.Version() == model.Scorm2004 {
		completion := a.CompletionStatus
		if completion == "" {
			completion = "unknown"
		}
		success := a.SuccessStatus
		if success == "" {
			success = "unknown"
		}
		return []scorm.KV{
			{Key: dm.Element(scorm.FieldCompletionStatus), Value: completion},
			{Key: dm.Element(scorm.FieldSuccessStatus), Value: success},
		}
	}
	status := a.LessonStatus
	if status == "" {
		status = model.StatusNotAttempted
	}
	return []scorm.KV{
		{Key: dm.Element(scorm.FieldLessonStatus), Value: string(status)},
	}
}
