package catalog

import (
	"math"
	"testing"

	"kvfiles/internal/keystore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferStorageType_NamePrefix(t *testing.T) {
	cases := map[string]StorageType{
		"r2:foo":         StorageR2,
		"s3:foo":         StorageS3,
		"discord:foo":    StorageDiscord,
		"hf:foo":         StorageHuggingFace,
		"foo.png":        StorageTelegram,
		"R2:foo":         StorageTelegram,
		"":               StorageTelegram,
		"abc/r2:foo.jpg": StorageTelegram,
	}
	for name, want := range cases {
		assert.Equal(t, want, InferStorageType(name, nil), name)
	}
}

func TestInferStorageType_ExplicitMetadata(t *testing.T) {
	assert.Equal(t, StorageR2, InferStorageType("s3:foo", map[string]any{"storageType": "R2"}))
	assert.Equal(t, StorageDiscord, InferStorageType("foo", map[string]any{"storage": "Discord"}))
	assert.Equal(t, StorageS3, InferStorageType("foo", map[string]any{"storageType": "s3", "storage": "r2"}))
	assert.Equal(t, StorageType("ipfs"), InferStorageType("foo", map[string]any{"storageType": "IPFS"}))

	// 假值视为未提供，继续看下一个字段或名称前缀
	assert.Equal(t, StorageR2, InferStorageType("r2:foo", map[string]any{"storageType": ""}))
	assert.Equal(t, StorageS3, InferStorageType("foo", map[string]any{"storageType": nil, "storage": "S3"}))
	assert.Equal(t, StorageTelegram, InferStorageType("foo", map[string]any{"storageType": false}))
	assert.Equal(t, StorageType("1"), InferStorageType("foo", map[string]any{"storage": float64(1)}))
}

func TestInferFileType(t *testing.T) {
	cases := map[string]FileType{
		"a.png":           FileImage,
		"A.JPEG":          FileImage,
		"r2:x/photo.avif": FileImage,
		"a.mp3":           FileAudio,
		"a.opus":          FileAudio,
		"a.mp4":           FileVideo,
		"a.ogg":           FileVideo,
		"clip.ts":         FileVideo,
		"README":          FileDocument,
		"report.pdf":      FileDocument,
		"archive.tar.gz":  FileDocument,
		"trailing.":       FileDocument,
		".png":            FileImage,
		"":                FileDocument,
	}
	for name, want := range cases {
		assert.Equal(t, want, InferFileType(name), name)
	}
}

func TestShouldIncludeKey(t *testing.T) {
	valid := map[string]any{"fileName": "a.png", "TimeStamp": float64(0)}

	assert.True(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: valid}))
	assert.False(t, ShouldIncludeKey(nil))
	assert.False(t, ShouldIncludeKey(&keystore.Key{Metadata: valid}))

	for _, name := range []string{"session:abc", "chunk:1", "upload:x.png", "temp:y"} {
		assert.False(t, ShouldIncludeKey(&keystore.Key{Name: name, Metadata: valid}), name)
	}

	assert.False(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: map[string]any{"fileName": "a.png"}}))
	assert.False(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: map[string]any{"fileName": "a.png", "TimeStamp": nil}}))
	assert.False(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: map[string]any{"fileName": "", "TimeStamp": 1}}))
	assert.False(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: map[string]any{"TimeStamp": 1}}))
	assert.False(t, ShouldIncludeKey(&keystore.Key{Name: "a.png"}))
	assert.True(t, ShouldIncludeKey(&keystore.Key{Name: "a.png", Metadata: map[string]any{"fileName": "a.png", "TimeStamp": ""}}))
}

func TestNormalizeKey_DoesNotMutateInput(t *testing.T) {
	in := keystore.Key{
		Name:     "hf:song.flac",
		Metadata: map[string]any{"fileName": "song.flac", "TimeStamp": 1, "fileType": "image", "owner": "alice"},
	}

	out := NormalizeKey(in)

	assert.Equal(t, "huggingface", out.Metadata["storageType"])
	assert.Equal(t, "audio", out.Metadata["fileType"])
	assert.Equal(t, "alice", out.Metadata["owner"])
	assert.Equal(t, "hf:song.flac", out.Name)

	assert.Equal(t, "image", in.Metadata["fileType"])
	_, has := in.Metadata["storageType"]
	assert.False(t, has)
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	for _, key := range []keystore.Key{
		{Name: "r2:a.png", Metadata: map[string]any{"fileName": "a", "TimeStamp": 1}},
		{Name: "b.mp4", Metadata: map[string]any{"storage": "S3"}},
		{Name: "doc"},
	} {
		once := NormalizeKey(key)
		twice := NormalizeKey(once)
		s1, f1 := Classification(once)
		s2, f2 := Classification(twice)
		assert.Equal(t, s1, s2, key.Name)
		assert.Equal(t, f1, f2, key.Name)
	}
}

func TestMatchStorage(t *testing.T) {
	assert.True(t, MatchStorage(StorageTelegram, "kv"))
	assert.True(t, MatchStorage(StorageTelegram, "telegram"))
	assert.False(t, MatchStorage(StorageR2, "kv"))
	assert.True(t, MatchStorage(StorageS3, "s3"))
	assert.True(t, MatchStorage(StorageS3, "S3"))
	assert.False(t, MatchStorage(StorageS3, "r2"))
	assert.True(t, MatchStorage(StorageR2, ""))
	assert.True(t, MatchStorage(StorageType("ipfs"), "ipfs"))
}

func TestSelect(t *testing.T) {
	key := keystore.Key{Name: "r2:a.png", Metadata: map[string]any{"fileName": "a.png", "TimeStamp": 0}}

	got, ok := Select(key, "")
	require.True(t, ok)
	assert.Equal(t, "r2", got.Metadata["storageType"])
	assert.Equal(t, "image", got.Metadata["fileType"])

	_, ok = Select(key, "telegram")
	assert.False(t, ok)

	_, ok = Select(keystore.Key{Name: "temp:a.png", Metadata: key.Metadata}, "")
	assert.False(t, ok)
}

func TestStats_Add(t *testing.T) {
	var s Stats
	s.Add(StorageTelegram, FileImage)
	s.Add(StorageR2, FileVideo)
	s.Add(StorageType("ipfs"), FileAudio)
	s.Add(StorageHuggingFace, FileType("unknown"))

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, TypeCounts{Image: 1, Video: 1, Audio: 1, Document: 1}, s.ByType)
	assert.Equal(t, StorageCounts{Telegram: 1, R2: 1, HuggingFace: 1}, s.ByStorage)
	assert.Equal(t, s.Total, s.ByType.Sum())
	assert.LessOrEqual(t, s.ByStorage.Sum(), s.Total)
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(""))
	assert.False(t, truthy(false))
	assert.False(t, truthy(float64(0)))
	assert.False(t, truthy(math.NaN()))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(1))
	assert.True(t, truthy(map[string]any{}))
	assert.True(t, truthy([]any{}))
}
