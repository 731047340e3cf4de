package catalog

import (
	"math"
	"strings"

	"kvfiles/internal/keystore"
)

// reservedPrefixes 是内部簿记条目（会话、分片、上传中、临时）的名称前缀。
var reservedPrefixes = []string{"session:", "chunk:", "upload:", "temp:"}

// ShouldIncludeKey 判断一个原始 key 是否是用户可见的文件条目。
// fileName 需为真值；TimeStamp 只要求存在且非 null，0 也算有效。
func ShouldIncludeKey(key *keystore.Key) bool {
	if key == nil || key.Name == "" {
		return false
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(key.Name, prefix) {
			return false
		}
	}

	if !truthy(key.Metadata["fileName"]) {
		return false
	}
	ts, ok := key.Metadata["TimeStamp"]
	return ok && ts != nil
}

// MatchStorage 判断 storageType 是否满足调用方的存储过滤条件。
// 空过滤条件匹配全部；kv 与 telegram 等价。
func MatchStorage(storageType StorageType, filter string) bool {
	filter = strings.ToLower(filter)
	switch filter {
	case "":
		return true
	case "kv", string(StorageTelegram):
		return storageType == StorageTelegram
	default:
		return string(storageType) == filter
	}
}

// truthy 复刻 JSON 值的真值语义：nil、false、空串、0、NaN 为假。
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case uint:
		return t != 0
	case uint64:
		return t != 0
	default:
		return true
	}
}
