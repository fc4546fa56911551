package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/krazyTry/redao-go/api"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Listen address (overrides api.listen)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger over HTTP with Prometheus metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		addr := app.Config.API.Listen
		if s, _ := cmd.Flags().GetString("listen"); s != "" {
			addr = s
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.NewServer(app.Engine, app.Registry, app.Logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			app.Logger.Info("api listening", zap.String("addr", addr))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Logger.Info("api shutting down")
		return srv.Shutdown(ctx)
	},
}
