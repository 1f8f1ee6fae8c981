package policies

import (
	"context"
	"io"
)

// Uploader stores property photos in object storage and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, contentType string, size int64, body io.Reader) (string, error)
}
