package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fundedai/boothchat/internal/db"
	"github.com/fundedai/boothchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the booth chat HTTP server",
	Long: `Indexes the configured document directory (if it changed) and starts
the HTTP and websocket chat server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := buildStack(cfg)
		if err != nil {
			return err
		}

		// The server still comes up when ingestion fails; answers are
		// simply ungrounded until /reload succeeds.
		if err := st.ingestor.EnsureIndex(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("startup ingestion failed")
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "boothchat.db"))
		if err != nil {
			return fmt.Errorf("opening transcript store: %w", err)
		}
		defer database.Close()

		srv := server.New(cfg, st.orchestrator, st.ingestor, database)

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case <-stop:
			log.Info().Msg("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
