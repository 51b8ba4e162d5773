package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// MaxReadBytes 限制一次性读入内存的对象大小。
const MaxReadBytes int64 = 32 << 20

// ErrObjectTooLarge 表示对象超过 MaxReadBytes。
var ErrObjectTooLarge = errors.New("object too large to read")

// IsNoSuchKey 判断错误是否明确表示对象不存在（S3/MinIO: NoSuchKey/NotFound）。
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch strings.ToLower(strings.TrimSpace(minioErr.Code)) {
		case "nosuchkey", "notfound":
			return true
		}
	}

	// 兜底：不同网关/代理可能会把错误包装成字符串。
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}
