package uploads

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rohanmhetar/nivaasa-backend/internal/storage"
	"github.com/stretchr/testify/require"
)

type filePart struct {
	name        string
	contentType string
	data        []byte
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	return buf.Bytes()
}

// fileHeaders round-trips the parts through a real multipart body so the
// FileHeaders look exactly like what fiber hands the handler.
func fileHeaders(t *testing.T, parts []filePart) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, p.name))
		header.Set("Content-Type", p.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	return form.File["images"]
}

func TestUploadBatchStoresEveryFileInOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	u := New(store)

	files := fileHeaders(t, []filePart{
		{name: "front.png", contentType: "image/png", data: pngBytes(t)},
		{name: "kitchen.png", contentType: "image/png", data: pngBytes(t)},
	})

	metas, err := u.UploadBatch(context.Background(), files, "properties")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	require.Equal(t, 2, store.Len())

	for i, meta := range metas {
		require.Equal(t, i, meta.Order)
		require.NotEmpty(t, meta.ID)
		require.True(t, strings.HasPrefix(meta.StoragePath, "properties/"))
		require.True(t, strings.HasSuffix(meta.StoragePath, ".jpg"))
		require.Equal(t, "local://"+meta.StoragePath, meta.URL)
		require.True(t, store.Has(meta.StoragePath))
		require.Greater(t, meta.Size, int64(0))
	}
	require.Equal(t, "front.png", metas[0].OriginalName)
	require.Equal(t, "kitchen.png", metas[1].OriginalName)
}

func TestUploadBatchEmptyIsANoop(t *testing.T) {
	u := New(storage.NewMemoryStore())

	metas, err := u.UploadBatch(context.Background(), nil, "properties")
	require.NoError(t, err)
	require.Empty(t, metas)
}

func TestUploadBatchRejectsNonImages(t *testing.T) {
	store := storage.NewMemoryStore()
	u := New(store)

	files := fileHeaders(t, []filePart{
		{name: "front.png", contentType: "image/png", data: pngBytes(t)},
		{name: "notes.txt", contentType: "text/plain", data: []byte("hello")},
	})

	_, err := u.UploadBatch(context.Background(), files, "properties")
	require.ErrorIs(t, err, ErrNotAnImage)

	// Validation runs before any write.
	require.Equal(t, 0, store.Len())
}

func TestUploadBatchRejectsOversizeFile(t *testing.T) {
	store := storage.NewMemoryStore()
	u := New(store)

	files := fileHeaders(t, []filePart{
		{name: "front.png", contentType: "image/png", data: pngBytes(t)},
		{name: "huge.png", contentType: "image/png", data: make([]byte, MaxFileSize+1)},
	})

	_, err := u.UploadBatch(context.Background(), files, "properties")
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Equal(t, 0, store.Len())
}

func TestUploadBatchRejectsTooManyFiles(t *testing.T) {
	u := New(storage.NewMemoryStore())

	parts := make([]filePart, MaxFiles+1)
	for i := range parts {
		parts[i] = filePart{
			name:        fmt.Sprintf("photo-%d.png", i),
			contentType: "image/png",
			data:        pngBytes(t),
		}
	}

	_, err := u.UploadBatch(context.Background(), fileHeaders(t, parts), "properties")
	require.ErrorIs(t, err, ErrTooManyFiles)
}

func TestCleanupDeletesStoredObjects(t *testing.T) {
	store := storage.NewMemoryStore()
	u := New(store)

	files := fileHeaders(t, []filePart{
		{name: "front.png", contentType: "image/png", data: pngBytes(t)},
	})
	metas, err := u.UploadBatch(context.Background(), files, "properties")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	u.Cleanup(context.Background(), metas)
	require.Equal(t, 0, store.Len())
}
