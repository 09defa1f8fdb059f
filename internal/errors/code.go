package errors

import (
	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 错误原因定义 (reason), 与 HTTP 状态码一一对应:
//
//	400: VALIDATION_FAILED / WEBHOOK_SHAPE_INVALID
//	401: AUTHENTICATION_FAILED
//	403: AUTHORIZATION_DENIED
//	500: STORAGE_FAILURE / ORACLE_FAILURE / WEBHOOK_STORAGE_FAILURE
//
// 各组件在边界处统一转换为这些错误, 内部错误不得泄露到 HTTP 响应体。
const (
	ReasonValidationFailed      = "VALIDATION_FAILED"
	ReasonAuthenticationFailed  = "AUTHENTICATION_FAILED"
	ReasonAuthorizationDenied   = "AUTHORIZATION_DENIED"
	ReasonStorageFailure        = "STORAGE_FAILURE"
	ReasonOracleFailure         = "ORACLE_FAILURE"
	ReasonWebhookShapeInvalid   = "WEBHOOK_SHAPE_INVALID"
	ReasonWebhookStorageFailure = "WEBHOOK_STORAGE_FAILURE"
)

// ErrValidation 请求参数缺失/非法 (400, 不可重试)
func ErrValidation(msg string) *kerrors.Error {
	return kerrors.New(400, ReasonValidationFailed, msg)
}

// ErrAuthentication 凭证无效 (401, 不可重试)
func ErrAuthentication(msg string) *kerrors.Error {
	return kerrors.New(401, ReasonAuthenticationFailed, msg)
}

// ErrAuthorization 准入被拒 (403, 用户可操作: 升级订阅)
func ErrAuthorization(msg string) *kerrors.Error {
	return kerrors.New(403, ReasonAuthorizationDenied, msg)
}

// ErrStorage 存储读写故障 (500, 调用方可重试)
func ErrStorage(msg string) *kerrors.Error {
	return kerrors.New(500, ReasonStorageFailure, msg)
}

// ErrOracle AI 输出为空/非法或传输故障 (500, 不自动重试, 配额已消耗)
func ErrOracle(msg string) *kerrors.Error {
	return kerrors.New(500, ReasonOracleFailure, msg)
}

// ErrWebhookShape webhook 报文结构非法 (400, 不可重试)
func ErrWebhookShape(msg string) *kerrors.Error {
	return kerrors.New(400, ReasonWebhookShapeInvalid, msg)
}

// ErrWebhookStorage webhook 处理时存储写入故障 (500, 由发送方按其重试策略重试)
func ErrWebhookStorage(msg string) *kerrors.Error {
	return kerrors.New(500, ReasonWebhookStorageFailure, msg)
}

// IsStorage 判断是否为存储故障
func IsStorage(err error) bool {
	return kerrors.Reason(err) == ReasonStorageFailure
}

// IsWebhookShape 判断是否为 webhook 报文结构错误
func IsWebhookShape(err error) bool {
	return kerrors.Reason(err) == ReasonWebhookShapeInvalid
}
