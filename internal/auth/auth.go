package auth

import (
	"context"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
)

// 定义 context key
type contextKey string

const (
	// UserIDKey 用户ID的context key（uid，字符串 UUID）
	UserIDKey contextKey = "user_id"
)

// WithUID 将已验证的用户ID写入 context
func WithUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

// GetUIDFromContext 从context中获取用户ID（字符串 UUID）
func GetUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	return uid, ok
}

// ExtractBearerToken 从 Authorization header 中提取 Bearer token
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.BadRequest("VALIDATION_FAILED", "authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.BadRequest("VALIDATION_FAILED", "authorization header must be a bearer token")
	}
	return parts[1], nil
}
