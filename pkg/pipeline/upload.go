package pipeline

import (
	"context"
	"fmt"

	"geostick/pkg/storage"
)

// UploadResult references an uploaded object: the dereferenceable public URL
// plus the storage path used. Produced exactly once per successful upload.
type UploadResult struct {
	URL  string
	Path string
}

// ObjectStorageUploader pushes an asset's payload to durable object storage.
// It never retries internally; retry policy, if any, belongs to the caller.
type ObjectStorageUploader struct {
	Store  storage.Store
	Bucket string
}

// Upload sends the asset bytes under a path deterministic in
// (ownerID, capture timestamp, extension), so concurrent users cannot
// collide while re-uploading the same asset stays an overwrite-safe upsert.
// On success the asset payload is cleared to bound memory; on failure it is
// left untouched.
func (u *ObjectStorageUploader) Upload(ctx context.Context, asset *Asset, ownerID string) (UploadResult, error) {
	if asset == nil || len(asset.Payload) == 0 {
		return UploadResult{}, failf(KindStorage, "no payload to upload")
	}
	if ownerID == "" {
		return UploadResult{}, failf(KindStorage, "missing owner id")
	}
	path := fmt.Sprintf("stickers/%s/%d.%s", ownerID, asset.CapturedAt.UnixMilli(), extensionFor(asset.ContentType))
	if err := u.Store.Upload(ctx, u.Bucket, path, asset.Payload, asset.ContentType, true); err != nil {
		return UploadResult{}, wrap(KindStorage, "upload "+path, err)
	}
	url := u.Store.PublicURL(u.Bucket, path)
	if url == "" {
		return UploadResult{}, failf(KindStorage, "no public url for %s", path)
	}
	asset.Payload = nil
	return UploadResult{URL: url, Path: path}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	default:
		return "jpg"
	}
}
