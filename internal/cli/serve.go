package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"uirecorder/internal/api/handlers"
	"uirecorder/internal/api/routes"
	"uirecorder/internal/config"
	"uirecorder/internal/executor"
	"uirecorder/internal/recorder"
	"uirecorder/internal/services"
	"uirecorder/internal/store"
	"uirecorder/pkg/auth"
	"uirecorder/pkg/database"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/replay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recorder API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver != "mysql" {
		logger.L().Infof("💾 Using in-memory store")
		return store.NewMemory(), nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	logger.L().Infof("💾 Using MySQL store %s@%s:%s/%s", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	return store.NewGorm(db), nil
}

// chromeFactory builds replay sessions from the Chrome settings.
func chromeFactory(cfg *config.Config) executor.FactoryFunc {
	return func(device string) replay.DriverFactory {
		if device == "" {
			device = cfg.Chrome.Device
		}
		return replay.ChromeFactory(replay.ChromeOptions{
			ExecPath: cfg.Chrome.ExecPath,
			Headless: cfg.Chrome.HeadlessMode,
			Width:    cfg.Chrome.WindowWidth,
			Height:   cfg.Chrome.WindowHeight,
			Device:   device,
		})
	}
}

func replayDefaults(cfg *config.Config) replay.Options {
	return replay.Options{
		ImplicitWait:   cfg.Replay.ImplicitWait,
		ExplicitWait:   cfg.Replay.ExplicitWait,
		ScreenshotsDir: cfg.Replay.ScreenshotsDir,
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	auth.InitJWT(cfg.JWT.Secret)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	service := recorder.NewService(st)
	exec := executor.New(st, chromeFactory(cfg), replayDefaults(cfg), cfg.Chrome.MaxInstances, cfg.Replay.RunTimeout)
	defer exec.Stop()

	scheduler := services.NewScheduler(st, exec)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	defer scheduler.Stop()

	statusSync := services.NewStatusSyncService(st, exec, cfg.Replay.RunTimeout)
	statusSync.Start()
	defer statusSync.Stop()

	recorders := recorder.NewManager(recorder.SessionOptions{
		ExecPath:      cfg.Chrome.ExecPath,
		Headless:      false,
		Width:         cfg.Chrome.WindowWidth,
		Height:        cfg.Chrome.WindowHeight,
		Device:        cfg.Chrome.Device,
		PollInterval:  cfg.Recorder.PollInterval,
		FlushInterval: cfg.Recorder.FlushInterval,
		RetryInterval: cfg.Recorder.RetryInterval,
	}, service.Flush)

	gin.SetMode(cfg.Server.Mode)
	router := routes.SetupRoutes(cfg, handlers.New(handlers.Deps{
		Config:    cfg,
		Store:     st,
		Service:   service,
		Recorders: recorders,
		Runner:    exec,
		Scheduler: scheduler,
	}))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Infof("✅ Server running at http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Infof("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	recorders.StopAll(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.L().Infof("Server shutdown complete")
	return nil
}
