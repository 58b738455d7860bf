package service

import (
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/scorm"
	"scorm_lms_backend/internal/util"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// InteractionService 记录会话期间上报的题目/目标/批注事件。
// 交互日志是诊断性的不是权威数据：单个字段解析失败只丢那个字段，
// 不整条拒收，残缺数据也比丢掉整条强。
type InteractionService struct {
	InteractionRepo *repository.InteractionRepository
}

func NewInteractionService(interactionRepo *repository.InteractionRepository) *InteractionService {
	return &InteractionService{InteractionRepo: interactionRepo}
}

// InteractionPayload 课件上报的交互载荷，数值/时间戳均为自由文本
type InteractionPayload struct {
	InteractionID   string `json:"interactionId" binding:"required"`
	Type            string `json:"type"`
	LearnerResponse string `json:"learnerResponse"`
	CorrectResponse string `json:"correctResponse"`
	Result          string `json:"result"`
	Score           string `json:"score"`
	Latency         string `json:"latency"`
	Description     string `json:"description"`
	Timestamp       string `json:"timestamp"`
}

type ObjectivePayload struct {
	ObjectiveID      string `json:"objectiveId" binding:"required"`
	Score            string `json:"score"`
	ScoreMin         string `json:"scoreMin"`
	ScoreMax         string `json:"scoreMax"`
	CompletionStatus string `json:"completionStatus"`
	SuccessStatus    string `json:"successStatus"`
}

type CommentPayload struct {
	Comment   string `json:"comment" binding:"required"`
	Location  string `json:"location"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

func (s *InteractionService) RecordInteraction(attemptID uint, payload *InteractionPayload) error {
	if payload.InteractionID == "" {
		return util.ErrInteractionPayload
	}

	rec := &model.AttemptInteraction{
		AttemptID:       attemptID,
		InteractionID:   payload.InteractionID,
		Type:            payload.Type,
		LearnerResponse: payload.LearnerResponse,
		CorrectResponse: payload.CorrectResponse,
		Result:          payload.Result,
		Description:     payload.Description,
		ScoreRaw:        util.ParseFloatPtr(payload.Score),
		Timestamp:       parseTimestamp(payload.Timestamp),
	}

	if payload.Latency != "" {
		if secs := parseLatency(payload.Latency); secs != nil {
			rec.LatencySeconds = secs
		} else {
			logger.Log.Debug("dropping unparseable interaction latency",
				zap.Uint("attemptId", attemptID),
				zap.String("latency", payload.Latency))
		}
	}

	return s.InteractionRepo.UpsertInteraction(rec)
}

func (s *InteractionService) RecordObjective(attemptID uint, payload *ObjectivePayload) error {
	if payload.ObjectiveID == "" {
		return util.ErrInteractionPayload
	}

	rec := &model.AttemptObjective{
		AttemptID:        attemptID,
		ObjectiveID:      payload.ObjectiveID,
		ScoreRaw:         util.ParseFloatPtr(payload.Score),
		ScoreMin:         util.ParseFloatPtr(payload.ScoreMin),
		ScoreMax:         util.ParseFloatPtr(payload.ScoreMax),
		CompletionStatus: payload.CompletionStatus,
		SuccessStatus:    payload.SuccessStatus,
	}

	return s.InteractionRepo.UpsertObjective(rec)
}

func (s *InteractionService) RecordComment(attemptID uint, payload *CommentPayload) error {
	source := payload.Source
	if source != "lms" {
		source = "learner"
	}

	rec := &model.AttemptComment{
		AttemptID: attemptID,
		Comment:   payload.Comment,
		Location:  payload.Location,
		Source:    source,
		Timestamp: parseTimestamp(payload.Timestamp),
	}

	return s.InteractionRepo.AppendComment(rec)
}

func (s *InteractionService) ListInteractions(attemptID uint) ([]model.AttemptInteraction, error) {
	return s.InteractionRepo.ListInteractions(attemptID)
}

// parseTimestamp 接受 RFC3339 和 SCORM 常见的裸格式，解析失败返回 nil（丢字段不丢记录）
func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		util.DateFormat,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseLatency 既接受 SCORM 时长格式也接受裸秒数
func parseLatency(s string) *float64 {
	if v := util.ParseFloatPtr(s); v != nil && *v >= 0 {
		return v
	}
	if secs, err := scorm.ParseDuration(s); err == nil {
		return &secs
	}
	return nil
}
