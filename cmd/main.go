package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"texiv-detect/config"
	"texiv-detect/internal/api"
	app "texiv-detect/internal/application"
	"texiv-detect/internal/container"
	"texiv-detect/internal/domain/entity"
	"texiv-detect/internal/infrastructure/inference"
	"texiv-detect/internal/infrastructure/media"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("application stopped with error", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.InferenceBackend == entity.BackendONNX {
		if err := inference.InitializeRuntime(cfg.ORTLibraryPath); err != nil {
			return err
		}
		defer func() {
			if err := inference.DestroyRuntime(); err != nil {
				logger.Warn("destroy onnxruntime", zap.Error(err))
			}
		}()
	}

	engine, err := inference.New(cfg.InferenceBackend, cfg.InferenceThreads)
	if err != nil {
		return err
	}

	// Собираем сервисы приложения
	appContainer, err := container.New(engine, media.NewOpener(cfg.FrameDirFPS), cfg.Processing(), cfg.StopTimeout, logger)
	if err != nil {
		return err
	}
	controller := appContainer.Controller
	defer func() {
		if err := controller.Close(); err != nil {
			logger.Warn("close controller", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return controller.Run(ctx)
	})

	server := api.NewServer(cfg.HTTPAddr, controller, logger.Named("http"))
	g.Go(func() error {
		return server.Run(ctx)
	})

	if cfg.TelegramToken != "" {
		bot, err := api.NewBot(cfg.TelegramToken, controller, appContainer.Subscribers, cfg.NotifyInterval, logger.Named("telegram"))
		if err != nil {
			return err
		}
		controller.AddNotifier(bot)
		g.Go(func() error {
			return bot.Run(ctx)
		})
	} else {
		logger.Info("TELEGRAM_TOKEN is empty, telegram bot disabled")
	}

	g.Go(func() error {
		autoload(ctx, cfg, controller, logger)
		return nil
	})

	logger.Info("texiv-detect is running", zap.String("http_addr", cfg.HTTPAddr), zap.String("backend", cfg.InferenceBackend))
	return g.Wait()
}

// autoload загружает модель и видео из конфигурации при старте
func autoload(ctx context.Context, cfg *config.Config, controller *app.Controller, logger *zap.Logger) {
	if cfg.ModelPath == "" {
		return
	}
	if err := controller.AutoLoad(ctx, cfg.ModelPath); err != nil {
		if !errors.Is(err, entity.ErrModelNotFound) {
			logger.Error("autoload model", zap.Error(err))
		}
		return
	}
	if cfg.VideoPath == "" {
		return
	}
	if err := controller.OpenVideo(cfg.VideoPath); err != nil {
		logger.Error("autoload video", zap.String("path", cfg.VideoPath), zap.Error(err))
		return
	}
	if err := controller.Play(); err != nil {
		logger.Error("autoplay", zap.Error(err))
	}
}
