package storage

import (
	"context"
	"errors"
)

// ErrExists is returned by Upload when upsert is false and an object already
// occupies the target path.
var ErrExists = errors.New("object already exists")

// Store abstracts the object storage service stickers are uploaded to.
// Upload writes data under bucket/path with the given content type. With
// upsert set, an existing object at the same path is overwritten; without
// it, a collision fails with ErrExists. PublicURL returns the dereferenceable
// URL for a stored object and performs no I/O.
type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error
	PublicURL(bucket, path string) string
}
