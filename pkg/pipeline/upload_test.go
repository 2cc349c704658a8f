package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geostick/pkg/storage"
)

func TestUploadDeterministicPathAndClearedPayload(t *testing.T) {
	mem := storage.NewMemory("https://cdn.test")
	up := &ObjectStorageUploader{Store: mem, Bucket: "stickers"}
	asset := &Asset{
		Payload:     []byte("payload"),
		ContentType: "image/jpeg",
		CapturedAt:  time.UnixMilli(1700000000000),
	}

	res, err := up.Upload(context.Background(), asset, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "stickers/owner-1/1700000000000.jpg", res.Path)
	assert.Equal(t, "https://cdn.test/stickers/stickers/owner-1/1700000000000.jpg", res.URL)
	assert.Nil(t, asset.Payload, "payload cleared exactly once after success")

	stored, ok := mem.Bytes("stickers", res.Path)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), stored)
}

func TestUploadSamePathIsUpsert(t *testing.T) {
	mem := storage.NewMemory("https://cdn.test")
	up := &ObjectStorageUploader{Store: mem, Bucket: "stickers"}
	at := time.UnixMilli(42)

	a := &Asset{Payload: []byte("first"), ContentType: "image/jpeg", CapturedAt: at}
	_, err := up.Upload(context.Background(), a, "owner-1")
	require.NoError(t, err)

	b := &Asset{Payload: []byte("second"), ContentType: "image/jpeg", CapturedAt: at}
	res, err := up.Upload(context.Background(), b, "owner-1")
	require.NoError(t, err, "re-upload of the same asset path must overwrite safely")

	stored, _ := mem.Bytes("stickers", res.Path)
	assert.Equal(t, []byte("second"), stored)
	assert.Equal(t, 1, mem.Len())
}

func TestUploadRejectsEmptyPayload(t *testing.T) {
	up := &ObjectStorageUploader{Store: storage.NewMemory("https://cdn.test"), Bucket: "stickers"}
	_, err := up.Upload(context.Background(), &Asset{}, "owner-1")
	require.Error(t, err)
	assert.Equal(t, KindStorage, KindOf(err))

	_, err = up.Upload(context.Background(), nil, "owner-1")
	require.Error(t, err)
}

func TestUploadPNGKeepsExtension(t *testing.T) {
	mem := storage.NewMemory("https://cdn.test")
	up := &ObjectStorageUploader{Store: mem, Bucket: "stickers"}
	asset := &Asset{Payload: []byte("png"), ContentType: "image/png", CapturedAt: time.UnixMilli(7)}
	res, err := up.Upload(context.Background(), asset, "o")
	require.NoError(t, err)
	assert.Equal(t, "stickers/o/7.png", res.Path)
}
