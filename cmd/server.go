package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nftlend/handler"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "serve the read api, health check and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signal.WithContext(commandContext(cmd, "server"))
		log := logger.FromContext(ctx)

		database := provideDatabase()
		defer database.Close()

		p := providePool(ctx, database, providePropertyStore(database))

		port, _ := cmd.Flags().GetInt("port")
		timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler.New(p, rootCmd.Version).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			log.Infoln("serve at", server.Addr)
			errc <- server.ListenAndServe()
		}()

		select {
		case err := <-errc:
			return fmt.Errorf("server aborted: %w", err)
		case <-ctx.Done():
		}

		shutdown, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdown); err != nil {
			log.WithError(err).Errorln("graceful shutdown server failed")
			return err
		}

		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		log.Infoln("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
	serverCmd.Flags().Duration("shutdown-timeout", 3*time.Second, "time to wait for in flight requests on shutdown")
}
