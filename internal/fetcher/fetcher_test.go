package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFTPURL(t *testing.T) {
	cases := []struct {
		in       string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{"ftp://ftp.dos.state.fl.us/public/doc/cor/cordata.zip", "ftp.dos.state.fl.us:21", "/public/doc/cor/cordata.zip", false},
		{"ftp://host:2121/extract.txt", "host:2121", "/extract.txt", false},
		{"https://host/extract.txt", "", "", true},
		{"ftp://host", "", "", true},
		{"://bad", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			host, path, err := parseFTPURL(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantPath, path)
		})
	}
}

func TestFileFetcher_Download(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "extract.txt")
	require.NoError(t, os.WriteFile(src, []byte("line one\nline two\n"), 0o644))

	f := NewFileFetcher()
	body, err := f.Download(context.Background(), src)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))

	_, err = f.Download(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestFileFetcher_DownloadToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	f := NewFileFetcher()
	n, err := f.DownloadToFile(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len("payload")), n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
