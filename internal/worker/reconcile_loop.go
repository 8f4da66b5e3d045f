package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nextchow/internal/logger"
)

// StaleSweeper 周期清理滞留订单
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

// ReconcileLoop 周期对账服务，队列未启用时同样运行
type ReconcileLoop struct {
	name     string
	sweeper  StaleSweeper
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewReconcileLoop 创建周期对账服务
func NewReconcileLoop(sweeper StaleSweeper, interval time.Duration) (*ReconcileLoop, error) {
	if sweeper == nil {
		return nil, errors.New("sweeper is nil")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileLoop{
		name:     "reconcile",
		sweeper:  sweeper,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Name 服务名称
func (l *ReconcileLoop) Name() string {
	if l == nil || l.name == "" {
		return "reconcile"
	}
	return l.name
}

// Start 阻塞运行直到 ctx 结束或调用 Stop
func (l *ReconcileLoop) Start(ctx context.Context) error {
	if l == nil || l.sweeper == nil {
		return errors.New("reconcile loop not initialized")
	}
	defer close(l.done)

	l.runOnce(ctx)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop:
			return nil
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

// Stop 停止服务
func (l *ReconcileLoop) Stop(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ReconcileLoop) runOnce(ctx context.Context) {
	count, err := l.sweeper.SweepStale(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Warnw("worker_reconcile_sweep_failed", "error", err)
		return
	}
	if count > 0 {
		logger.Infow("worker_reconcile_sweep_done", "cancelled", count)
	}
}
