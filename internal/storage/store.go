// Package storage is the object-store capability boundary. The S3 client is
// constructed once in main and injected; nothing in this repo reaches for a
// global bucket handle.
package storage

import "context"

// ObjectStore writes and deletes stored blobs. Put returns the URL under
// which the object is reachable: a public HTTPS URL when the store could
// mark it publicly readable, otherwise an internal reference.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
