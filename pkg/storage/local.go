package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores objects on the local filesystem under rootDir/bucket/path.
// Public URLs are formed from baseURL, which is whatever prefix the files
// are served under (e.g. http://localhost:8081/public).
type Local struct {
	rootDir string
	baseURL string
}

func NewLocal(rootDir, baseURL string) *Local {
	return &Local{rootDir: rootDir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(l.rootDir, bucket, filepath.FromSlash(path))
	if !upsert {
		if _, err := os.Stat(dst); err == nil {
			return ErrExists
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return err
	}
	return nil
}

func (l *Local) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/%s/%s", l.baseURL, bucket, path)
}
