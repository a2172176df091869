package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odvcencio/myvcs/pkg/repo"
	"github.com/odvcencio/myvcs/pkg/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the JSON API and sync endpoints for a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			cfg := repo.DefaultConfig()
			var logger *slog.Logger
			if r, err := repo.Open(root); err == nil {
				if cfg, err = r.ReadConfig(); err != nil {
					return err
				}
				logger = newLogger(cfg.Log, r.MetaDir, cmd.ErrOrStderr(), true)
			} else if errors.Is(err, repo.ErrNotARepository) {
				logger = newLogger(cfg.Log, "", cmd.ErrOrStderr(), true)
			} else {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			srv, err := server.New(root, server.WithLogger(logger), server.WithRepoOptions(repo.WithLogger(logger)))
			if err != nil {
				return err
			}
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				logger.Info("serving", "addr", addr, "root", srv.Root())
				errc <- httpSrv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s\n", srv.Root(), addr)

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info("shutting down", "addr", addr)
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from [server] addr)")
	return cmd
}
