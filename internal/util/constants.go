package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeJSON = "application/json"
)

// ArchiveRoutePrefix 归档快照下载路径，仅教官可访问
const ArchiveRoutePrefix = "/api/instructor/archives/"

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)
