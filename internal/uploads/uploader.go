// Package uploads turns multipart file parts into stored ImageMeta records.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohanmhetar/nivaasa-backend/internal/images"
	"github.com/rohanmhetar/nivaasa-backend/internal/models"
	"github.com/rohanmhetar/nivaasa-backend/internal/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxFiles caps a single upload batch.
	MaxFiles = 10
	// MaxFileSize caps one file part.
	MaxFileSize = 10 * 1024 * 1024
)

var (
	ErrTooManyFiles = fmt.Errorf("a batch may contain at most %d images", MaxFiles)
	ErrFileTooLarge = fmt.Errorf("each image must be smaller than %d bytes", MaxFileSize)
	ErrNotAnImage   = errors.New("only image files are accepted")
)

// Uploader runs the per-file pipeline: normalize, name, store.
type Uploader struct {
	store storage.ObjectStore
}

func New(store storage.ObjectStore) *Uploader {
	return &Uploader{store: store}
}

// UploadBatch processes and stores every file concurrently under basePath.
// The batch is all-or-nothing: any single failure rejects the whole call.
// Objects already written by succeeding siblings are not rolled back;
// callers track storage paths for later cleanup.
func (u *Uploader) UploadBatch(ctx context.Context, files []*multipart.FileHeader, basePath string) ([]models.ImageMeta, error) {
	if len(files) == 0 {
		return []models.ImageMeta{}, nil
	}
	if len(files) > MaxFiles {
		return nil, ErrTooManyFiles
	}

	// Reject bad parts before any storage write happens.
	for _, fh := range files {
		if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
			return nil, ErrNotAnImage
		}
		if fh.Size > MaxFileSize {
			return nil, ErrFileTooLarge
		}
	}

	metas := make([]models.ImageMeta, len(files))
	g, gctx := errgroup.WithContext(ctx)

	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			data, err := readPart(fh)
			if err != nil {
				return err
			}

			processed := images.Process(data, fh.Filename)
			id := uuid.New().String()
			key := path.Join(basePath, id+processed.Ext)

			url, err := u.store.Put(gctx, key, processed.Data, processed.ContentType)
			if err != nil {
				return err
			}

			metas[i] = models.ImageMeta{
				ID:           id,
				URL:          url,
				StoragePath:  key,
				Size:         int64(len(processed.Data)),
				OriginalName: fh.Filename,
				Order:        i,
				UploadedAt:   time.Now().UTC(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metas, nil
}

// Cleanup deletes the given images from storage, best-effort: failures are
// logged and skipped, never returned.
func (u *Uploader) Cleanup(ctx context.Context, metas []models.ImageMeta) {
	for _, img := range metas {
		if img.StoragePath == "" {
			continue
		}
		if err := u.store.Delete(ctx, img.StoragePath); err != nil {
			slog.Error("image cleanup failed", "path", img.StoragePath, "error", err)
		}
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
