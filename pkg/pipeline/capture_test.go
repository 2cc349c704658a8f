package pipeline

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{200, 120, 40, 255})
	path := filepath.Join(t.TempDir(), "capture.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func TestCaptureNormalizesOversizedImage(t *testing.T) {
	path := writeTestImage(t, 3200, 2400)
	p := &MediaCaptureProcessor{Permissions: GrantAll, Library: FileSource(path)}

	asset, err := p.Capture(context.Background(), CaptureLibrary)
	require.NoError(t, err)
	assert.LessOrEqual(t, asset.Width, 1600)
	assert.Equal(t, 1600, asset.Width)
	assert.Equal(t, 1200, asset.Height, "aspect preserved")
	assert.Equal(t, "image/jpeg", asset.ContentType)
	assert.Equal(t, path, asset.SourcePath)
	assert.False(t, asset.CapturedAt.IsZero())

	// payload must be decodable without another disk read
	img, err := imaging.Decode(bytes.NewReader(asset.Payload))
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
}

func TestCaptureKeepsSmallImageSize(t *testing.T) {
	path := writeTestImage(t, 640, 480)
	p := &MediaCaptureProcessor{Permissions: GrantAll, Library: FileSource(path)}

	asset, err := p.Capture(context.Background(), CaptureLibrary)
	require.NoError(t, err)
	assert.Equal(t, 640, asset.Width, "no upscaling")
	assert.Equal(t, 480, asset.Height)
}

func TestCapturePermissionDenied(t *testing.T) {
	deny := func(ctx context.Context, p Permission) (bool, error) { return p != PermissionCamera, nil }
	path := writeTestImage(t, 100, 100)
	p := &MediaCaptureProcessor{Permissions: deny, Library: FileSource(path)}

	_, err := p.Capture(context.Background(), CaptureLibrary)
	require.Error(t, err)
	assert.Equal(t, KindPermissionDenied, KindOf(err))
}

func TestCaptureMissingFile(t *testing.T) {
	p := &MediaCaptureProcessor{Permissions: GrantAll, Library: FileSource("/nonexistent/file.jpg")}
	_, err := p.Capture(context.Background(), CaptureLibrary)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSpoolSourcePicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	src := NewSpoolSource(dir)
	src.Settle = 30 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		img := imaging.New(64, 64, color.NRGBA{1, 2, 3, 255})
		_ = imaging.Save(img, filepath.Join(dir, "shot.jpg"))
	}()

	path, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shot.jpg"), path)
}

func TestSpoolSourceIgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	src := NewSpoolSource(dir)
	src.Settle = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() {
		_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	}()

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
