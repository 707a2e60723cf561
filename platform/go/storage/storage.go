package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObjectLocation describes where a blob should live.
type ObjectLocation struct {
	Bucket   string
	FullPath string
}

// TenantPrefix is the object prefix owned by one tenant: "<root>/<tenantId>/".
// An empty root places tenants at the bucket top level.
func TenantPrefix(root string, tenantID uuid.UUID) (string, error) {
	if tenantID == uuid.Nil {
		return "", fmt.Errorf("tenant id is required")
	}
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		return tenantID.String() + "/", nil
	}
	return root + "/" + tenantID.String() + "/", nil
}

// ResolveObjectLocation combines a tenant prefix and logical key into a bucket/path pair.
//   - bucket comes from deployment configuration.
//   - prefix is the result of TenantPrefix.
//   - logicalKey is tenant-relative, e.g. "history/<pageId>/<timestamp>.jsonl".
func ResolveObjectLocation(prefix, bucket, logicalKey string) (ObjectLocation, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return ObjectLocation{}, fmt.Errorf("bucket is required")
	}
	key := strings.TrimPrefix(strings.TrimSpace(logicalKey), "/")
	if key == "" {
		return ObjectLocation{}, fmt.Errorf("logical key is required")
	}
	if strings.Contains(key, "..") {
		return ObjectLocation{}, fmt.Errorf("logical key must not contain '..'")
	}
	if prefix == "" {
		return ObjectLocation{}, fmt.Errorf("tenant prefix is missing")
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return ObjectLocation{Bucket: bucket, FullPath: prefix + key}, nil
}
