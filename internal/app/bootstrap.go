package app

import (
	"context"
	"errors"

	"github.com/nextchow/internal/config"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/provider"
	"github.com/nextchow/internal/router"
	"github.com/nextchow/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(ctx context.Context, cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container, err := provider.NewContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return buildRunnerWithContainer(cfg, container, mode)
}

func buildRunnerWithContainer(cfg *config.Config, container *provider.Container, mode string) (*Runner, error) {
	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		httpService := NewHTTPService(cfg.Server.Addr(), engine)
		services = append(services, httpService)
	}

	if mode == ModeAll || mode == ModeWorker {
		// 队列未启用时仍依赖周期对账兜底
		loop, err := worker.NewReconcileLoop(container.ReconcileService, cfg.Checkout.ReconcileInterval())
		if err != nil {
			_ = container.Close(context.Background())
			return nil, err
		}
		services = append(services, loop)

		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				_ = container.Close(context.Background())
				return nil, err
			}
			services = append(services, workerService)
		} else {
			logger.Warnw("app_worker_queue_disabled", "mode", mode)
		}
	}

	if len(services) == 0 {
		_ = container.Close(context.Background())
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(context.Background(), opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
