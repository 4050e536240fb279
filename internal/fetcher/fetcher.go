// Package fetcher retrieves extract files. The Division publishes the
// quarterly and daily extracts on an anonymous FTP site; operators who
// already have the file on disk use the file fetcher instead.
package fetcher

import (
	"context"
	"io"
)

// Fetcher retrieves a source file by URL or path.
type Fetcher interface {
	// Download returns the file body. The caller must close it.
	Download(ctx context.Context, src string) (io.ReadCloser, error)

	// DownloadToFile writes the file to path. Returns bytes written.
	DownloadToFile(ctx context.Context, src string, path string) (int64, error)
}
