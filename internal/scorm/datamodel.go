package scorm

import (
	"fmt"
	"strconv"

	"scorm_lms_backend/internal/model"
)

// Field RTE 会话关心的逻辑字段，与 ScormAttempt 的强类型列一一对应
type Field int

const (
	FieldUnknown Field = iota
	FieldLessonStatus
	FieldCompletionStatus
	FieldSuccessStatus
	FieldScoreRaw
	FieldScoreMin
	FieldScoreMax
	FieldScoreScaled
	FieldLocation
	FieldSuspendData
	FieldEntry
	FieldExit
	FieldSessionTime
	FieldTotalTime
	FieldProgressMeasure
)

// DataModel 按 SCORM 版本选择一次的元素命名空间策略。
// 1.2 走 cmi.core.*，2004 走无前缀 cmi.*；会话逻辑本身不做版本判断。
type DataModel interface {
	Version() model.ScormVersion
	// Element 逻辑字段对应的元素路径，该版本不支持时返回空串
	Element(f Field) string
	// Field 元素路径反查逻辑字段
	Field(element string) Field
	// ReadOnly / WriteOnly 协议层访问控制
	ReadOnly(element string) bool
	WriteOnly(element string) bool
	// EntryAbInitio 重新开始的 entry 词汇（1.2 与 2004 连字符不同）
	EntryAbInitio() string
	// Defaults 空 CMI 文档的版本默认值，按顺序写入
	Defaults(a *model.ScormAttempt, pkg *model.ContentPackage, learner *model.User) []KV
}

// KV 预置 CMI 字段的有序键值对
type KV struct {
	Key   string
	Value string
}

// DataModelFor 每个 attempt 按包版本选择一次策略对象
func DataModelFor(v model.ScormVersion) DataModel {
	if v == model.Scorm2004 {
		return dataModel2004{}
	}
	return dataModel12{}
}

type dataModel12 struct{}

var elements12 = map[Field]string{
	FieldLessonStatus: "cmi.core.lesson_status",
	FieldScoreRaw:     "cmi.core.score.raw",
	FieldScoreMin:     "cmi.core.score.min",
	FieldScoreMax:     "cmi.core.score.max",
	FieldLocation:     "cmi.core.lesson_location",
	FieldSuspendData:  "cmi.suspend_data",
	FieldEntry:        "cmi.core.entry",
	FieldExit:         "cmi.core.exit",
	FieldSessionTime:  "cmi.core.session_time",
	FieldTotalTime:    "cmi.core.total_time",
}

var fields12 = invert(elements12)

func (dataModel12) Version() model.ScormVersion { return model.Scorm12 }

func (dataModel12) Element(f Field) string { return elements12[f] }

func (dataModel12) Field(element string) Field { return fields12[element] }

func (dataModel12) ReadOnly(element string) bool {
	switch element {
	case "cmi.core.student_id", "cmi.core.student_name", "cmi.core.credit",
		"cmi.core.entry", "cmi.core.total_time", "cmi.core.lesson_mode",
		"cmi.launch_data", "cmi.student_data.mastery_score":
		return true
	}
	return isChildrenOrCount(element)
}

func (dataModel12) WriteOnly(element string) bool {
	return element == "cmi.core.session_time" || element == "cmi.core.exit"
}

func (dataModel12) EntryAbInitio() string { return model.EntryAbInitio12 }

func (dataModel12) Defaults(a *model.ScormAttempt, pkg *model.ContentPackage, learner *model.User) []KV {
	kvs := []KV{
		{"cmi.core._children", "student_id,student_name,lesson_location,credit,lesson_status,entry,score,total_time,lesson_mode,exit,session_time"},
		{"cmi.core.student_id", strconv.FormatUint(uint64(a.UserID), 10)},
		{"cmi.core.student_name", learnerName(learner)},
		{"cmi.core.lesson_location", ""},
		{"cmi.core.credit", "credit"},
		{"cmi.core.lesson_status", string(model.StatusNotAttempted)},
		{"cmi.core.entry", model.EntryAbInitio12},
		{"cmi.core.score._children", "raw,min,max"},
		{"cmi.core.score.raw", ""},
		{"cmi.core.score.min", ""},
		{"cmi.core.score.max", ""},
		{"cmi.core.lesson_mode", "normal"},
		{"cmi.suspend_data", ""},
		{"cmi.launch_data", ""},
	}
	if pkg.MasteryScore != nil {
		kvs = append(kvs, KV{"cmi.student_data.mastery_score", formatScore(*pkg.MasteryScore)})
	}
	return kvs
}

type dataModel2004 struct{}

var elements2004 = map[Field]string{
	FieldCompletionStatus: "cmi.completion_status",
	FieldSuccessStatus:    "cmi.success_status",
	FieldScoreRaw:         "cmi.score.raw",
	FieldScoreMin:         "cmi.score.min",
	FieldScoreMax:         "cmi.score.max",
	FieldScoreScaled:      "cmi.score.scaled",
	FieldLocation:         "cmi.location",
	FieldSuspendData:      "cmi.suspend_data",
	FieldEntry:            "cmi.entry",
	FieldExit:             "cmi.exit",
	FieldSessionTime:      "cmi.session_time",
	FieldTotalTime:        "cmi.total_time",
	FieldProgressMeasure:  "cmi.progress_measure",
}

var fields2004 = invert(elements2004)

func (dataModel2004) Version() model.ScormVersion { return model.Scorm2004 }

func (dataModel2004) Element(f Field) string { return elements2004[f] }

func (dataModel2004) Field(element string) Field { return fields2004[element] }

func (dataModel2004) ReadOnly(element string) bool {
	switch element {
	case "cmi.learner_id", "cmi.learner_name", "cmi.credit", "cmi.entry",
		"cmi.total_time", "cmi.mode", "cmi.launch_data",
		"cmi.scaled_passing_score", "cmi.completion_threshold":
		return true
	}
	return isChildrenOrCount(element)
}

func (dataModel2004) WriteOnly(element string) bool {
	return element == "cmi.session_time" || element == "cmi.exit"
}

func (dataModel2004) EntryAbInitio() string { return model.EntryAbInitio2004 }

func (dataModel2004) Defaults(a *model.ScormAttempt, pkg *model.ContentPackage, learner *model.User) []KV {
	kvs := []KV{
		{"cmi._version", "1.0"},
		{"cmi.learner_id", strconv.FormatUint(uint64(a.UserID), 10)},
		{"cmi.learner_name", learnerName(learner)},
		{"cmi.completion_status", "unknown"},
		{"cmi.success_status", "unknown"},
		{"cmi.entry", model.EntryAbInitio2004},
		{"cmi.credit", "credit"},
		{"cmi.mode", "normal"},
		{"cmi.location", ""},
		{"cmi.score._children", "scaled,raw,min,max"},
		{"cmi.score.scaled", ""},
		{"cmi.score.raw", ""},
		{"cmi.score.min", ""},
		{"cmi.score.max", ""},
		{"cmi.suspend_data", ""},
		{"cmi.launch_data", ""},
	}
	if pkg.MasteryScore != nil {
		// 2004 的及格线以 [-1,1] 的 scaled 分数表达
		kvs = append(kvs, KV{"cmi.scaled_passing_score", formatScore(*pkg.MasteryScore / 100)})
	}
	return kvs
}

func invert(m map[Field]string) map[string]Field {
	out := make(map[string]Field, len(m))
	for f, e := range m {
		out[e] = f
	}
	return out
}

func isChildrenOrCount(element string) bool {
	n := len(element)
	return (n >= 9 && element[n-9:] == "_children") ||
		(n >= 6 && element[n-6:] == "_count") ||
		element == "cmi._version"
}

func learnerName(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.Name
}

func formatScore(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%g", v)
}
