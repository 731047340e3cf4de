package catalog

import "kvfiles/internal/keystore"

// Select 对单个原始 key 依次执行有效性过滤、规范化和存储过滤。
// 单页列表与全量统计共用这一条链路，保证两者的分类规则一致。
func Select(key keystore.Key, storageFilter string) (keystore.Key, bool) {
	if !ShouldIncludeKey(&key) {
		return keystore.Key{}, false
	}
	normalized := NormalizeKey(key)
	storageType, _ := Classification(normalized)
	if !MatchStorage(storageType, storageFilter) {
		return keystore.Key{}, false
	}
	return normalized, true
}
