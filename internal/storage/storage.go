package storage

import (
	"context"
	"path"
	"strings"
	"time"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage captures the minimal S3-compatible operations the seeder and
// the Drive archive need.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// JoinKey joins key segments with "/" and drops empty and leading slashes.
func JoinKey(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return path.Join(cleaned...)
}

// ArchiveKey is the object key an ingested file is archived under:
// <prefix>/<kind>/<YYYYMMDD-HHMMSS>-<name>.
func ArchiveKey(prefix, kind, name string, at time.Time) string {
	return JoinKey(prefix, kind, at.UTC().Format("20060102-150405")+"-"+path.Base(name))
}
