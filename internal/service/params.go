package service

import (
	"net/url"
	"strings"

	"kvfiles/internal/keystore"
)

const (
	// DefaultListLimit 是未指定或非法 limit 时使用的页大小。
	DefaultListLimit = 100
	// MaxListLimit 是单页 limit 的上限。
	MaxListLimit = keystore.MaxPageSize
)

// ListParams 是列表接口识别的全部请求参数。
type ListParams struct {
	Limit        int
	Cursor       string
	Prefix       string
	Storage      string
	IncludeStats bool
}

// ParseListParams 从查询串解析参数；非法值回退到默认值而不是报错。
func ParseListParams(q url.Values) ListParams {
	return ListParams{
		Limit:        ParseLimit(q.Get("limit")),
		Cursor:       q.Get("cursor"),
		Prefix:       q.Get("prefix"),
		Storage:      strings.ToLower(q.Get("storage")),
		IncludeStats: parseFlag(firstNonEmpty(q.Get("includeStats"), q.Get("stats"))),
	}
}

// ParseLimit 取原始值开头的十进制整数（"250abc" 视为 250），
// 无数字或 <= 0 时返回默认值，超过上限时截断为上限。
func ParseLimit(raw string) int {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	value, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		digits++
		if value <= MaxListLimit {
			value = value*10 + int(c-'0')
		}
	}

	switch {
	case digits == 0 || negative || value <= 0:
		return DefaultListLimit
	case value > MaxListLimit:
		return MaxListLimit
	default:
		return value
	}
}

func parseFlag(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
