package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// FilesRoute is where the HTTP server exposes the local blob directory
const FilesRoute = "/files"

// BlobLocal writes objects under a directory served by the HTTP server
type BlobLocal struct {
	root    string
	baseURL string
}

func NewBlobLocal(root, baseURL string) (repositories.BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &BlobLocal{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (b *BlobLocal) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *BlobLocal) Upload(ctx context.Context, path, contentType string, r io.Reader) (*models.BlobHandle, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(full)
		return nil, err
	}

	return &models.BlobHandle{Path: path, ContentType: contentType, Size: n}, nil
}

func (b *BlobLocal) PublicURL(ctx context.Context, handle *models.BlobHandle) (string, error) {
	full, err := b.resolve(handle.Path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("public url %s: %w", handle.Path, repositories.ErrNotFound)
		}
		return "", fmt.Errorf("public url %s: %w", handle.Path, err)
	}

	segments := strings.Split(handle.Path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return b.baseURL + FilesRoute + "/" + strings.Join(segments, "/"), nil
}
