package catalog

import "kvfiles/internal/keystore"

// NormalizeKey 返回一个新的 Key：复制原有 metadata，并写入推断出的
// storageType 与 fileType（覆盖同名字段）。输入不会被修改。
func NormalizeKey(key keystore.Key) keystore.Key {
	storageType := InferStorageType(key.Name, key.Metadata)
	fileType := InferFileType(key.Name)

	metadata := make(map[string]any, len(key.Metadata)+2)
	for k, v := range key.Metadata {
		metadata[k] = v
	}
	metadata["storageType"] = string(storageType)
	metadata["fileType"] = string(fileType)

	key.Metadata = metadata
	return key
}

// Classification 读取 NormalizeKey 写入的分类字段。
func Classification(key keystore.Key) (StorageType, FileType) {
	storageType, _ := key.Metadata["storageType"].(string)
	fileType, _ := key.Metadata["fileType"].(string)
	if fileType == "" {
		fileType = string(FileDocument)
	}
	return StorageType(storageType), FileType(fileType)
}
