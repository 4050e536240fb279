package main

import (
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/corpsearch-cli/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <remote-file> <local-path>",
	Short: "Download an extract file from the Division's FTP site",
	Long: `Download one extract file from the Division's FTP site to a local path,
ready for ingest. The remote name is resolved against fetch.base_url unless
it is already a full ftp:// URL.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		remote, local := args[0], args[1]

		url := remote
		if len(remote) < 6 || remote[:6] != "ftp://" {
			url = cfg.Fetch.BaseURL + "/" + path.Clean(remote)
		}

		f := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})

		zap.L().Info("downloading extract", zap.String("url", url), zap.String("dest", local))
		n, err := f.DownloadToFile(ctx, url, local)
		if err != nil {
			return err
		}

		fmt.Printf("Downloaded %d bytes to %s\n", n, local)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
