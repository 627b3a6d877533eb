package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matheusmosca/sales-portal/internal/config"
	"github.com/matheusmosca/sales-portal/internal/database"
	"github.com/matheusmosca/sales-portal/internal/portal"
	"github.com/matheusmosca/sales-portal/internal/telemetry"
)

// NewServeCmd cria o comando serve
func NewServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the sales portal HTTP API under /api/v1.

Storage is chosen by storage.driver (postgres or memory). With --migrate the
pending migrations are applied before the server starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Server.Port = port
			}
			if driver, _ := cmd.Flags().GetString("storage"); driver != "" {
				cfg.Storage.Driver = driver
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			migrate, _ := cmd.Flags().GetBool("migrate")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cfg, migrate)
		},
	}

	serveCmd.Flags().String("port", "", "HTTP port (overrides server.port)")
	serveCmd.Flags().String("storage", "", "Storage driver: postgres or memory (overrides storage.driver)")
	serveCmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")

	return serveCmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize OpenTelemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := otel.Tracer(cfg.Telemetry.ServiceName)
	metrics, err := portal.NewMetrics()
	if err != nil {
		return err
	}

	repository, closeRepository, err := openRepository(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer closeRepository()

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	svc := portal.NewService(repository, tracer, metrics, location)
	r := portal.NewRouter(svc, cfg.Telemetry.ServiceName)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Sales Portal listening on port %s (storage=%s)", cfg.Server.Port, cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("ℹ️ Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	log.Println("✅ Server stopped")
	return nil
}

func openRepository(ctx context.Context, cfg *config.Config, migrate bool) (portal.Repository, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Println("ℹ️ Using in-memory storage, data is lost on restart")
		return portal.NewMemoryRepository(), func() {}, nil
	}

	if migrate {
		if err := migrateUp(ctx, cfg.Database); err != nil {
			return nil, nil, err
		}
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return portal.NewPostgresRepository(pool), pool.Close, nil
}

func migrateUp(ctx context.Context, cfg config.DatabaseConfig) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	log.Printf("✅ [MIGRATE] %d migration(s) applied", applied)
	return nil
}
