package fetcher

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// FileFetcher serves local paths through the Fetcher interface so the
// ingest command and tests do not need a network.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{}
}

// Download opens the local file at src.
func (f *FileFetcher) Download(ctx context.Context, src string) (io.ReadCloser, error) {
	file, err := os.Open(src)
	if err != nil {
		return nil, eris.Wrapf(err, "file: open %s", src)
	}
	return file, nil
}

// DownloadToFile copies src to path. Returns bytes written.
func (f *FileFetcher) DownloadToFile(ctx context.Context, src string, path string) (int64, error) {
	in, err := f.Download(ctx, src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "file: create %s", path)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return n, eris.Wrapf(err, "file: write %s", path)
	}
	return n, nil
}
