package catalog

import (
	"fmt"
	"strings"
)

// StorageType 标识文件字节实际所在的虚拟存储后端。
// 显式 metadata 可能携带未知值，因此不是封闭枚举。
type StorageType string

const (
	StorageTelegram    StorageType = "telegram"
	StorageR2          StorageType = "r2"
	StorageS3          StorageType = "s3"
	StorageDiscord     StorageType = "discord"
	StorageHuggingFace StorageType = "huggingface"
)

// FileType 是由扩展名推断出的媒体大类。
type FileType string

const (
	FileImage    FileType = "image"
	FileVideo    FileType = "video"
	FileAudio    FileType = "audio"
	FileDocument FileType = "document"
)

var namePrefixes = []struct {
	prefix  string
	storage StorageType
}{
	{"r2:", StorageR2},
	{"s3:", StorageS3},
	{"discord:", StorageDiscord},
	{"hf:", StorageHuggingFace},
}

var (
	imageExts = setOf("jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff", "ico", "svg", "heic", "heif", "avif")
	videoExts = setOf("mp4", "webm", "ogg", "avi", "mov", "wmv", "flv", "mkv", "m4v", "3gp", "ts")
	audioExts = setOf("mp3", "wav", "ogg", "flac", "aac", "m4a", "wma", "ape", "opus")
)

// InferStorageType 优先采用 metadata 中的 storageType / storage，
// 否则按名称前缀判断，均未命中时归为 telegram。
func InferStorageType(name string, metadata map[string]any) StorageType {
	for _, field := range []string{"storageType", "storage"} {
		if v := metadata[field]; truthy(v) {
			return StorageType(strings.ToLower(fmt.Sprint(v)))
		}
	}

	for _, p := range namePrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.storage
		}
	}
	return StorageTelegram
}

// InferFileType 取最后一个 '.' 之后的扩展名分类；
// 视频集合先于音频检查，所以 ogg 归为 video。
func InferFileType(name string) FileType {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return FileDocument
	}

	ext := strings.ToLower(name[idx+1:])
	switch {
	case imageExts[ext]:
		return FileImage
	case videoExts[ext]:
		return FileVideo
	case audioExts[ext]:
		return FileAudio
	default:
		return FileDocument
	}
}

func setOf(items ...string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}
