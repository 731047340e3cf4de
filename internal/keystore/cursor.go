package keystore

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// EncodeCursor 把最后返回的 key 名称编码为不透明游标。
func EncodeCursor(lastName string) string {
	if lastName == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastName))
}

// DecodeCursor 还原 EncodeCursor 生成的游标，空游标返回空字符串。
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return string(raw), nil
}

// Window 在已按字典序排序的名称列表上应用 prefix/cursor/limit，
// 供不支持原生分页的后端（Consul、NATS）复用。
func Window(sorted []string, opts ListOptions) (names []string, next string, complete bool, err error) {
	after, err := DecodeCursor(opts.Cursor)
	if err != nil {
		return nil, "", false, err
	}

	start := sort.SearchStrings(sorted, opts.Prefix)
	if after != "" {
		idx := sort.Search(len(sorted), func(i int) bool { return sorted[i] > after })
		if idx > start {
			start = idx
		}
	}

	limit := opts.EffectiveLimit()
	for i := start; i < len(sorted); i++ {
		name := sorted[i]
		if !strings.HasPrefix(name, opts.Prefix) {
			break
		}
		if len(names) == limit {
			return names, EncodeCursor(names[len(names)-1]), false, nil
		}
		names = append(names, name)
	}

	return names, "", true, nil
}
