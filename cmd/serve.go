package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/corpsearch-cli/internal/api"
	"github.com/sells-group/corpsearch-cli/internal/name"
	"github.com/sells-group/corpsearch-cli/internal/search"
)

var servePort int

// shutdownTimeout bounds the drain of in-flight requests on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// drainServer shuts the server down on a fresh context; the signal context
// is already cancelled by the time shutdown starts, so it cannot be used to
// drain.
func drainServer(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the availability search API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := search.New(st, name.DefaultRules(), searchOptions(), nil)
		server := api.NewServer(svc, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			if err := drainServer(srv, shutdownTimeout); err != nil {
				zap.L().Warn("server drain failed", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
