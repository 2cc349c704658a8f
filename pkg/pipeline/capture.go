package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
)

// CaptureKind selects where the image comes from.
type CaptureKind string

const (
	CaptureCamera  CaptureKind = "camera"
	CaptureLibrary CaptureKind = "library"
)

// Asset is a normalized in-memory image plus metadata. Payload is owned by
// the submission attempt and cleared exactly once after a successful upload.
type Asset struct {
	Payload     []byte
	Width       int
	Height      int
	ContentType string
	SourcePath  string
	CapturedAt  time.Time
}

// CaptureSource yields the path of the next raw capture. The camera source
// blocks until a new file lands in the spool directory; the library source
// returns a user-chosen file immediately.
type CaptureSource interface {
	Next(ctx context.Context) (string, error)
}

const (
	// normalized captures never exceed this width; aspect is preserved
	maxCaptureWidth = 1600
	jpegQuality     = 80
)

// MediaCaptureProcessor acquires an image from camera or library and
// normalizes it to a bounded JPEG held in memory, so later stages need no
// additional disk read.
type MediaCaptureProcessor struct {
	Permissions PermissionFunc
	Camera      CaptureSource
	Library     CaptureSource
	Logger      *slog.Logger
}

// Capture requests the camera and library permissions up front and fails
// with a permission_denied error before touching any source when either is
// refused. On success the returned asset's payload is decodable JPEG with
// width <= 1600.
func (p *MediaCaptureProcessor) Capture(ctx context.Context, kind CaptureKind) (*Asset, error) {
	for _, perm := range []Permission{PermissionCamera, PermissionLibrary} {
		granted, err := p.Permissions(ctx, perm)
		if err != nil {
			return nil, wrap(KindPermissionDenied, string(perm)+" permission check failed", err)
		}
		if !granted {
			return nil, failf(KindPermissionDenied, "%s permission denied", perm)
		}
	}

	src := p.Library
	if kind == CaptureCamera {
		src = p.Camera
	}
	if src == nil {
		return nil, failf(KindValidation, "no %s capture source configured", kind)
	}
	path, err := src.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", kind, err)
	}
	asset, err := normalizeImage(path)
	if err != nil {
		return nil, err
	}
	p.logger().Info("capture normalized",
		"path", path, "width", asset.Width, "height", asset.Height, "bytes", len(asset.Payload))
	return asset, nil
}

// normalizeImage loads a raw capture, caps its width and re-encodes it as
// JPEG, keeping the encoded bytes in memory.
func normalizeImage(path string) (*Asset, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if img.Bounds().Dx() > maxCaptureWidth {
		img = imaging.Resize(img, maxCaptureWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return &Asset{
		Payload:     buf.Bytes(),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ContentType: "image/jpeg",
		SourcePath:  path,
		CapturedAt:  time.Now(),
	}, nil
}

func (p *MediaCaptureProcessor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
