package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	client "github.com/disasterwatch/client"
)

func newWatchCmd() *cobra.Command {
	var social, resources, updates []string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow disasters live, printing the dashboard on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server failed")
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			// Keep only the latest view; rendering must not hold up the loop.
			views := make(chan client.View, 1)
			unsubscribe := c.Subscribe(func(v client.View) {
				select {
				case <-views:
				default:
				}
				select {
				case views <- v:
				default:
				}
			})
			defer unsubscribe()

			if err := c.Start(); err != nil {
				return err
			}
			for _, id := range social {
				if err := c.WatchSocialMedia(id); err != nil {
					return err
				}
			}
			for _, id := range resources {
				if _, err := c.WatchResources(id, client.ResourceQuery{}); err != nil {
					return err
				}
			}
			for _, id := range updates {
				if err := c.WatchOfficialUpdates(id); err != nil {
					return err
				}
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			for {
				select {
				case <-ctx.Done():
					return nil
				case v := <-views:
					renderView(out, v)
				case n := <-c.Notices():
					renderNotice(errOut, n)
				}
			}
		},
	}

	cmd.Flags().StringSliceVar(&social, "social", nil, "Disaster IDs whose social media to follow")
	cmd.Flags().StringSliceVar(&resources, "resources", nil, "Disaster IDs whose nearby resources to follow")
	cmd.Flags().StringSliceVar(&updates, "updates", nil, "Disaster IDs whose official updates to follow")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}
