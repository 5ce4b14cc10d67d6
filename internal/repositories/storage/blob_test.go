package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

func TestBlobLocal_UploadAndURL(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewBlobLocal(root, "http://localhost:8080/")
	require.NoError(t, err)

	handle, err := store.Upload(ctx, "assignments/1700000000000_hw 1.pdf", "application/pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), handle.Size)

	data, err := os.ReadFile(filepath.Join(root, "assignments", "1700000000000_hw 1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	u, err := store.PublicURL(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/assignments/1700000000000_hw%201.pdf", u)
}

func TestBlobLocal_RejectsEscapingPaths(t *testing.T) {
	store, err := NewBlobLocal(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	for _, p := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := store.Upload(context.Background(), p, "text/plain", strings.NewReader("x"))
		assert.Error(t, err, p)
	}
}

func TestBlobLocal_MissingObject(t *testing.T) {
	store, err := NewBlobLocal(t.TempDir(), "http://localhost")
	require.NoError(t, err)

	_, err = store.PublicURL(context.Background(), &models.BlobHandle{Path: "assignments/none.pdf"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDownloadURL(t *testing.T) {
	got := downloadURL("school.appspot.com", "assignments/1_hw.pdf", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/school.appspot.com/o/assignments%2F1_hw.pdf?alt=media&token=tok", got)
}
