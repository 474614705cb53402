package shortlink

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidURL 是领域层对“URL 不合法”的统一错误。
//
// 设计原因：
// - 上层（HTTP）可以稳定地把它映射成 400，而不需要关心底层校验细节
// - 统一错误类型，避免各处返回不同字符串导致难以判断/测试
var ErrInvalidURL = errors.New("invalid url")

// 自定义短码的两类拒绝原因分开返回，调用方把具体原因透传给用户。
var ErrSlugTooShort = errors.New("custom slug must be at least 3 characters long")
var ErrSlugChars = errors.New("custom slug can only contain letters, numbers, hyphens, and underscores")

// ValidateURL 校验用户输入的 URL 是否满足短链服务的最小要求。
//
// 规则：
// - 非空
// - scheme 必须是 http/https
// - host 不能为空
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return ErrInvalidURL
	}
	return nil
}

var slugRe = regexp.MustCompile(`^[A-Za-z0-9-_]+$`)

// ValidateSlug 校验用户自定义短码。纯函数，不做任何规范化（大小写/trim 由调用方负责）。
//
// 规则（按顺序）：
// - 长度 >= 3，否则 ErrSlugTooShort
// - 仅允许字母/数字/连字符/下划线，否则 ErrSlugChars
func ValidateSlug(slug string) error {
	if len(slug) < 3 {
		return ErrSlugTooShort
	}
	if !slugRe.MatchString(slug) {
		return ErrSlugChars
	}
	return nil
}
