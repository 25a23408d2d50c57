package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/coreterra/internal/logging"
	"github.com/tgienger/coreterra/internal/mockapi"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

func newMockServerCmd(flags *rootFlags) *cobra.Command {
	var addr, seedPath, secret string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory backend for development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := flags.logLevel
			if level == "" {
				level = "info"
			}
			logging.Setup(cmd.ErrOrStderr(), level)

			seed := mockapi.DefaultSeed()
			if seedPath != "" {
				var err error
				if seed, err = mockapi.LoadSeed(seedPath); err != nil {
					return err
				}
			}
			var opts []mockapi.Option
			if secret != "" {
				opts = append(opts, mockapi.WithSecret(secret))
			}
			backend, err := mockapi.New(seed, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: addr, Handler: backend.Handler(), ReadHeaderTimeout: 5 * time.Second}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Good.Render("Mock backend listening on http://"+addr))
			if seedPath == "" {
				fmt.Fprintln(out, styles.LabelValue("Sign in with", mockapi.DefaultUsername+" / "+mockapi.DefaultPassword))
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML seed file (default built-in demo data)")
	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing key")
	return cmd
}
