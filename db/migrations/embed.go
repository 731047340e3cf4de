package migrations

import "embed"

// UpFiles 内嵌 kv_keys 相关的全部 up 迁移脚本。
//
//go:embed *.up.sql
var UpFiles embed.FS
