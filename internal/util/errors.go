package util

import "errors"

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPackageNotFound    = errors.New("content package not found")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptNotOwned    = errors.New("attempt belongs to another learner")
	ErrInvalidScormVer    = errors.New("unsupported scorm version")
	ErrInvalidArchiveExt  = errors.New("仅支持 zip 格式的课件包")
	ErrTopicNotFound      = errors.New("topic not found")
	ErrInteractionPayload = errors.New("interaction payload missing id")
)
