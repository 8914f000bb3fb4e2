package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/internal/mockapi"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/spf13/cobra"
)

var (
	mockAddr    string
	mockNoSeed  bool
	mockOrigins []string
)

// mockServerCmd runs the in-memory backend
var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory backend for local demos",
	Long: `Run an in-memory implementation of the inventory API. Data is lost on exit.

The demo data set has an admin (admin@example.com / admin123) and a user
(user@example.com / user123).

Examples:
  stockdash mock-server
  stockdash mock-server --addr :9090 --no-seed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMockServer()
	},
}

func init() {
	rootCmd.AddCommand(mockServerCmd)
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", "", "Listen address (overrides STOCKDASH_MOCK_ADDR)")
	mockServerCmd.Flags().BoolVar(&mockNoSeed, "no-seed", false, "Start with no data")
	mockServerCmd.Flags().StringSliceVar(&mockOrigins, "allow-origin", nil, "Browser origins allowed by CORS (default: any)")
}

func runMockServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mockAddr != "" {
		cfg.Mock.Addr = mockAddr
	}
	if cfg.Log.Level == "warn" {
		cfg.Log.Level = "info"
	}

	out, closeLog, err := config.OpenLogOutput(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	log, err := config.NewLogger(cfg.Log, out)
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := mockapi.New(mockapi.Options{
		JWTSecret:    cfg.Mock.JWTSecret,
		AllowOrigins: mockOrigins,
		Logger:       log,
	})
	if !mockNoSeed {
		if err := srv.SeedDemo(); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	output.Success("Mock API listening on %s", cfg.Mock.Addr)
	output.Muted("Press Ctrl+C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	output.Info("Mock API stopped")
	return nil
}
