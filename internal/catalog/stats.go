package catalog

// TypeCounts 是按媒体类型的计数，字段集合固定。
type TypeCounts struct {
	Image    int `json:"image"`
	Video    int `json:"video"`
	Audio    int `json:"audio"`
	Document int `json:"document"`
}

// StorageCounts 是按存储后端的计数，未知后端不计入。
type StorageCounts struct {
	Telegram    int `json:"telegram"`
	R2          int `json:"r2"`
	S3          int `json:"s3"`
	Discord     int `json:"discord"`
	HuggingFace int `json:"huggingface"`
}

// Stats 是全量（过滤后）key 空间的聚合结果。
type Stats struct {
	Total     int           `json:"total"`
	ByType    TypeCounts    `json:"byType"`
	ByStorage StorageCounts `json:"byStorage"`
}

// Add 计入一个已通过全部过滤的条目。
func (s *Stats) Add(storageType StorageType, fileType FileType) {
	s.Total++

	switch fileType {
	case FileImage:
		s.ByType.Image++
	case FileVideo:
		s.ByType.Video++
	case FileAudio:
		s.ByType.Audio++
	default:
		s.ByType.Document++
	}

	switch storageType {
	case StorageTelegram:
		s.ByStorage.Telegram++
	case StorageR2:
		s.ByStorage.R2++
	case StorageS3:
		s.ByStorage.S3++
	case StorageDiscord:
		s.ByStorage.Discord++
	case StorageHuggingFace:
		s.ByStorage.HuggingFace++
	}
}

// Sum 返回各类型计数之和，恒等于 Total。
func (c TypeCounts) Sum() int {
	return c.Image + c.Video + c.Audio + c.Document
}

// Sum 返回各后端计数之和，不超过 Total。
func (c StorageCounts) Sum() int {
	return c.Telegram + c.R2 + c.S3 + c.Discord + c.HuggingFace
}
