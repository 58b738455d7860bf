package service

import (
	"strconv"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/scorm"
)

// ScoreService 从一次尝试的多个候选来源推导单一最优分数。
// 候选全部计算后取最大值：更可信的来源不会压掉一个更高的观测分，
// 已经看到的高分绝不丢弃。
type ScoreService struct{}

func NewScoreService() *ScoreService {
	return &ScoreService{}
}

// Extracted 分数提取结果，分数缺失是一等公民而不是异常
type Extracted struct {
	Score      *float64
	ShouldSync bool
}

func (s *ScoreService) Extract(a *model.ScormAttempt, dm scorm.DataModel) Extracted {
	var best *float64

	consider := func(v *float64) {
		if v == nil {
			return
		}
		if best == nil || *v > *best {
			val := *v
			best = &val
		}
	}

	// 1. attempt 上的强类型原始分
	consider(a.ScoreRaw)

	// 2. CMI 文档里的原始分
	consider(s.cmiFloat(a, dm, scorm.FieldScoreRaw))

	// 3. CMI scaled 分 ×100
	if scaled := s.cmiFloat(a, dm, scorm.FieldScoreScaled); scaled != nil {
		v := *scaled * 100
		consider(&v)
	}

	// 4. 已完成/通过且有进度百分比时，用进度百分比
	if a.LessonStatus == model.StatusCompleted || a.LessonStatus == model.StatusPassed {
		if pm := s.cmiFloat(a, dm, scorm.FieldProgressMeasure); pm != nil {
			v := *pm * 100
			consider(&v)
		}
	}

	// 零分必须同步（区别于没有分数），负分或无分则不触发。
	// 这条不对称规则是为了修掉首次尝试零分被悄悄丢掉的那类历史问题。
	shouldSync := a.LessonStatus.Terminal() || (best != nil && *best >= 0)

	return Extracted{Score: best, ShouldSync: shouldSync}
}

func (s *ScoreService) cmiFloat(a *model.ScormAttempt, dm scorm.DataModel, f scorm.Field) *float64 {
	element := dm.Element(f)
	if element == "" {
		return nil
	}
	raw, ok := a.CMIData.Get(element)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
