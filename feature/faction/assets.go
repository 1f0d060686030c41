package faction

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/storage"
)

// AssetResolver maps a faction-relative asset path to a displayable URL.
type AssetResolver interface {
	// Resolve returns a URL for the asset, or "" when the input cannot
	// resolve (empty path, path escaping the faction's prefix).
	Resolve(ctx context.Context, factionID, relativePath string, isLocal bool) (string, error)
}

// StorageAssetResolver resolves asset paths to presigned bucket URLs.
// Static faction assets live under the static prefix, uploaded ones under
// the local prefix.
type StorageAssetResolver struct {
	client       storage.Client
	bucket       string
	staticPrefix string
	localPrefix  string
	expiry       time.Duration
}

// NewStorageAssetResolver creates a resolver issuing URLs valid for expiry.
func NewStorageAssetResolver(client storage.Client, bucket, staticPrefix, localPrefix string, expiry time.Duration) *StorageAssetResolver {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &StorageAssetResolver{
		client:       client,
		bucket:       bucket,
		staticPrefix: staticPrefix,
		localPrefix:  localPrefix,
		expiry:       expiry,
	}
}

// Resolve presigns a GET for the asset object.
func (r *StorageAssetResolver) Resolve(ctx context.Context, factionID, relativePath string, isLocal bool) (string, error) {
	if relativePath == "" || factionID == "" {
		return "", nil
	}
	if strings.Contains(relativePath, "..") {
		return "", nil
	}

	prefix := r.staticPrefix
	if isLocal {
		prefix = r.localPrefix
	}
	object := path.Join(prefix, strings.ToLower(factionID), relativePath)

	u, err := r.client.PresignedGetObject(ctx, r.bucket, object, r.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign asset %s: %w", object, err)
	}
	return u.String(), nil
}
