package scorm

// RTE 标准错误码。协议边界上只暴露这些码和对应描述，
// 内部错误一律不穿透给课件帧。
const (
	ErrNoError           = "0"
	ErrGeneralException  = "101"
	ErrInvalidArgument   = "201"
	ErrNoChildren        = "202"
	ErrNotArray          = "203"
	ErrNotInitialized    = "301"
	ErrNotImplemented    = "401"
	ErrInvalidSetValue   = "402"
	ErrReadOnly          = "403"
	ErrWriteOnly         = "404"
	ErrIncorrectDataType = "405"
)

var errorStrings = map[string]string{
	ErrNoError:           "No error",
	ErrGeneralException:  "General exception",
	ErrInvalidArgument:   "Invalid argument error",
	ErrNoChildren:        "Element cannot have children",
	ErrNotArray:          "Element not an array - cannot have count",
	ErrNotInitialized:    "Not initialized",
	ErrNotImplemented:    "Not implemented error",
	ErrInvalidSetValue:   "Invalid set value, element is a keyword",
	ErrReadOnly:          "Element is read only",
	ErrWriteOnly:         "Element is write only",
	ErrIncorrectDataType: "Incorrect data type",
}

// ErrorString 返回错误码描述，未知码返回空串
func ErrorString(code string) string {
	return errorStrings[code]
}

// Diagnostic 诊断信息与错误描述一致，最小符合性实现不附加细节
func Diagnostic(code string) string {
	return ErrorString(code)
}
