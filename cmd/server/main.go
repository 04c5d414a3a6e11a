package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"speech-illustrator/internal/bootstrap"
	"speech-illustrator/internal/config"
	"speech-illustrator/internal/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr      string
		assetsDir string
	)

	cmd := &cobra.Command{
		Use:           "speech-illustrator-server",
		Short:         "Serve recording, translation and illustration over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := config.LoadEnv()
			if addr != "" {
				env.HTTPAddr = addr
			}
			return serve(cmd.Context(), env, assetsDir)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	cmd.Flags().StringVar(&assetsDir, "assets", "frontend", "directory with the browser view, empty to disable")
	return cmd
}

func serve(ctx context.Context, env config.Env, assetsDir string) error {
	app, logger, cleanup, err := bootstrap.NewFromEnv(env, nil)
	if err != nil {
		return fmt.Errorf("bootstrap app: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr: env.HTTPAddr,
		Handler: httpapi.NewRouter(app, httpapi.Options{
			AllowedOrigins: env.AllowedOrigins,
			Assets:         assetsFS(assetsDir, logger),
			Logger:         logger.Named("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", env.HTTPAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	app.Shutdown(shutdownCtx)
	return nil
}

func assetsFS(dir string, logger *zap.Logger) fs.FS {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.Warn("browser view not served", zap.String("dir", dir))
		return nil
	}
	return os.DirFS(dir)
}
