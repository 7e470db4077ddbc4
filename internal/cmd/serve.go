package cmd

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/savevault/savevault/internal/config"
	"github.com/savevault/savevault/internal/provider/b2"
	"github.com/savevault/savevault/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend proxy",
	Long: `Run the backend proxy that brokers upload targets, listings and
downloads against the storage provider. Provider credentials come from the
environment (B2_KEY_ID, B2_APPLICATION_KEY, B2_BUCKET_ID, B2_BUCKET_NAME)
and are validated on first use.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	storage := b2.New(b2.Config{
		KeyID:          cfg.KeyID,
		ApplicationKey: cfg.ApplicationKey,
		BucketID:       cfg.BucketID,
		BucketName:     cfg.BucketName,
	})

	srv := server.New(cfg, storage, logger)

	logger.Info("starting savevault backend",
		zap.String("addr", srv.Addr),
		zap.Bool("guarded", cfg.AppToken != ""),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
	)
	if cfg.AppToken == "" {
		logger.Warn("APP_TOKEN is not set; the API is open to anyone who can reach it")
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
