package scorm

import (
	"strconv"
	"strings"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/pkg/logger"

	"go.uber.org/zap"
)

// State RTE 会话的协议状态
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateTerminated
)

const (
	// 协议布尔返回是字面量字符串，不是原生布尔
	TrueString  = "true"
	FalseString = "false"
)

// Committer Commit/Terminate 时负责"持久化 attempt + 同步进度"，
// 两者必须落在同一个事务里，由调用方（service 层）保证。
type Committer func(a *model.ScormAttempt) error

// Seed 恢复决议的输出：entry 取值 + 需要按顺序预置的 CMI 字段
type Seed struct {
	Entry  string
	Fields []KV
}

// SeedFunc Initialize 时咨询的恢复决议器，永不报错，内部兜底到重新开始
type SeedFunc func(a *model.ScormAttempt, pkg *model.ContentPackage, dm DataModel) Seed

// Session 绑定单个 attempt 的 RTE 协议状态机。
// 单个会话无内部并发，由课件帧的同步调用序列驱动。
type Session struct {
	attempt *model.ScormAttempt
	pkg     *model.ContentPackage
	learner *model.User
	dm      DataModel

	state     State
	lastError string

	commit Committer
	seed   SeedFunc

	// 本次会话中课件是否自己写过状态，Terminate 时据此决定要不要按及格线推导
	statusSetByContent bool
}

func NewSession(a *model.ScormAttempt, pkg *model.ContentPackage, learner *model.User, commit Committer, seed SeedFunc) *Session {
	return &Session{
		attempt:   a,
		pkg:       pkg,
		learner:   learner,
		dm:        DataModelFor(pkg.Version),
		state:     StateUninitialized,
		lastError: ErrNoError,
		commit:    commit,
		seed:      seed,
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) Attempt() *model.ScormAttempt { return s.attempt }

func (s *Session) DataModel() DataModel { return s.dm }

// Initialize 仅允许从 Uninitialized 进入。空文档先按版本种默认值，
// 再由恢复决议器决定 entry 与书签字段。
func (s *Session) Initialize() string {
	switch s.state {
	case StateInitialized:
		s.lastError = ErrGeneralException
		return FalseString
	case StateTerminated:
		s.lastError = ErrNotInitialized
		return FalseString
	}

	if s.attempt.CMIData.Len() == 0 {
		for _, kv := range s.dm.Defaults(s.attempt, s.pkg, s.learner) {
			s.attempt.CMIData.Set(kv.Key, kv.Value)
		}
	}

	seed := s.seed(s.attempt, s.pkg, s.dm)
	s.attempt.Entry = seed.Entry
	s.attempt.CMIData.Set(s.dm.Element(FieldEntry), seed.Entry)
	for _, kv := range seed.Fields {
		s.applyElement(kv.Key, kv.Value)
	}
	// 预置不算课件自己写状态
	s.statusSetByContent = false

	s.attempt.LastAccessedAt = time.Now()
	s.state = StateInitialized
	s.lastError = ErrNoError
	return TrueString
}

// GetValue 未知但格式合法的元素路径不算错误，返回空串、错误码 0
func (s *Session) GetValue(element string) string {
	if s.state != StateInitialized {
		s.lastError = ErrNotInitialized
		return ""
	}
	element = strings.TrimSpace(element)
	if element == "" {
		s.lastError = ErrInvalidArgument
		return ""
	}
	if s.dm.WriteOnly(element) {
		s.lastError = ErrWriteOnly
		return ""
	}

	// total_time 从累加的秒数动态计算，不依赖文档里的陈旧值
	if s.dm.Field(element) == FieldTotalTime {
		s.lastError = ErrNoError
		return s.formatTotalTime()
	}

	v, _ := s.attempt.CMIData.Get(element)
	s.lastError = ErrNoError
	return v
}

// SetValue 先原样写入 CMI 文档，再尽力镜像到强类型字段；
// 类型转换失败置错误码 405 但不中止本次调用。
func (s *Session) SetValue(element, value string) string {
	if s.state != StateInitialized {
		s.lastError = ErrNotInitialized
		return FalseString
	}
	element = strings.TrimSpace(element)
	if element == "" || !strings.HasPrefix(element, "cmi") {
		s.lastError = ErrInvalidArgument
		return FalseString
	}
	if s.dm.ReadOnly(element) {
		s.lastError = ErrReadOnly
		return FalseString
	}

	s.lastError = ErrNoError
	s.applyElement(element, value)
	s.attempt.LastAccessedAt = time.Now()
	return TrueString
}

// Commit 持久化 attempt（含 CMI 文档）并触发分数提取 -> 进度同步。
// 持久化失败置 101，不中断会话。
func (s *Session) Commit() string {
	if s.state != StateInitialized {
		s.lastError = ErrNotInitialized
		return FalseString
	}
	return s.persist()
}

// Terminate 与 Commit 同样持久化+同步，然后进入终态；之后任何调用都返回 301
func (s *Session) Terminate() string {
	if s.state != StateInitialized {
		s.lastError = ErrNotInitialized
		return FalseString
	}

	s.deriveStatus()
	if s.attempt.LessonStatus.Terminal() && s.attempt.CompletedAt == nil {
		now := time.Now()
		s.attempt.CompletedAt = &now
	}

	result := s.persist()
	s.state = StateTerminated
	return result
}

func (s *Session) GetLastError() string { return s.lastError }

func (s *Session) GetErrorString(code string) string { return ErrorString(code) }

func (s *Session) GetDiagnostic(code string) string { return Diagnostic(code) }

func (s *Session) persist() string {
	s.attempt.LastAccessedAt = time.Now()
	if s.commit != nil {
		if err := s.commit(s.attempt); err != nil {
			logger.Log.Error("scorm attempt commit failed",
				zap.Uint("attemptId", s.attempt.ID),
				zap.Error(err))
			s.lastError = ErrGeneralException
			return FalseString
		}
	}
	s.lastError = ErrNoError
	return TrueString
}

// applyElement 同时写文档和强类型镜像字段的唯一入口，防止两者漂移
func (s *Session) applyElement(element, value string) {
	field := s.dm.Field(element)

	// session_time 只累加不落文档快照；total_time 动态生成
	if field != FieldSessionTime {
		s.attempt.CMIData.Set(element, value)
	}

	switch field {
	case FieldLessonStatus:
		s.applyLessonStatus(value)
	case FieldCompletionStatus:
		s.applyCompletionStatus(value)
	case FieldSuccessStatus:
		s.applySuccessStatus(value)
	case FieldScoreRaw:
		s.attempt.ScoreRaw = s.parseScore(value, s.attempt.ScoreRaw)
	case FieldScoreMin:
		s.attempt.ScoreMin = s.parseScore(value, s.attempt.ScoreMin)
	case FieldScoreMax:
		s.attempt.ScoreMax = s.parseScore(value, s.attempt.ScoreMax)
	case FieldScoreScaled:
		s.attempt.ScoreScaled = s.parseScore(value, s.attempt.ScoreScaled)
	case FieldLocation:
		if len(value) > 1000 {
			value = value[:1000]
		}
		s.attempt.LessonLocation = value
	case FieldSuspendData:
		s.attempt.SuspendData = value
	case FieldEntry:
		s.attempt.Entry = value
	case FieldExit:
		s.attempt.ExitMode = value
	case FieldSessionTime:
		s.applySessionTime(value)
	}
}

func (s *Session) applyLessonStatus(value string) {
	status := model.LessonStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case model.StatusNotAttempted, model.StatusIncomplete, model.StatusCompleted,
		model.StatusPassed, model.StatusFailed, model.StatusBrowsed:
		s.attempt.LessonStatus = status
		s.statusSetByContent = true
	default:
		s.lastError = ErrIncorrectDataType
	}
}

func (s *Session) applyCompletionStatus(value string) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "completed", "incomplete", "not attempted", "unknown":
		s.attempt.CompletionStatus = v
		s.statusSetByContent = true
		// 2004 的并行字段同时折算进统一的 lesson_status 枚举，
		// success_status 的终态优先不被覆盖
		if !s.attempt.LessonStatus.Terminal() || v == "completed" {
			switch v {
			case "completed":
				if s.attempt.SuccessStatus != "passed" && s.attempt.SuccessStatus != "failed" {
					s.attempt.LessonStatus = model.StatusCompleted
				}
			case "incomplete":
				s.attempt.LessonStatus = model.StatusIncomplete
			case "not attempted", "unknown":
				s.attempt.LessonStatus = model.StatusNotAttempted
			}
		}
	default:
		s.lastError = ErrIncorrectDataType
	}
}

func (s *Session) applySuccessStatus(value string) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "passed", "failed", "unknown":
		s.attempt.SuccessStatus = v
		s.statusSetByContent = true
		if v == "passed" {
			s.attempt.LessonStatus = model.StatusPassed
		} else if v == "failed" {
			s.attempt.LessonStatus = model.StatusFailed
		}
	default:
		s.lastError = ErrIncorrectDataType
	}
}

// parseScore 防御性数值解析：坏值保留文档原文、置 405、不动已有镜像值
func (s *Session) parseScore(value string, current *float64) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		s.lastError = ErrIncorrectDataType
		logger.Log.Warn("non-numeric score value kept verbatim in cmi document",
			zap.Uint("attemptId", s.attempt.ID),
			zap.String("value", value))
		return current
	}
	return &v
}

// applySessionTime 会话时长只做累加，绝不替换累计值
func (s *Session) applySessionTime(value string) {
	secs, err := ParseDuration(value)
	if err != nil {
		s.lastError = ErrIncorrectDataType
		logger.Log.Warn("unparseable session_time ignored",
			zap.Uint("attemptId", s.attempt.ID),
			zap.String("value", value))
		return
	}
	s.attempt.TotalTimeSeconds += secs
	s.attempt.CMIData.Set(s.dm.Element(FieldTotalTime), s.formatTotalTime())
}

func (s *Session) formatTotalTime() string {
	if s.dm.Version() == model.Scorm2004 {
		return FormatISO8601(s.attempt.TotalTimeSeconds)
	}
	return FormatClock(s.attempt.TotalTimeSeconds)
}

// deriveStatus 课件整个会话都没写状态、但报了分且包声明了及格线时，
// 按 1.2 规范在 Terminate 时推导 passed/failed
func (s *Session) deriveStatus() {
	if s.statusSetByContent || s.attempt.ScoreRaw == nil || s.pkg.MasteryScore == nil {
		return
	}
	if *s.attempt.ScoreRaw >= *s.pkg.MasteryScore {
		s.attempt.LessonStatus = model.StatusPassed
		s.attempt.SuccessStatus = "passed"
	} else {
		s.attempt.LessonStatus = model.StatusFailed
		s.attempt.SuccessStatus = "failed"
	}
	if el := s.dm.Element(FieldLessonStatus); el != "" {
		s.attempt.CMIData.Set(el, string(s.attempt.LessonStatus))
	}
	if el := s.dm.Element(FieldSuccessStatus); el != "" {
		s.attempt.CMIData.Set(el, s.attempt.SuccessStatus)
	}
}
