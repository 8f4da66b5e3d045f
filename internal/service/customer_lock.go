package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextchow/internal/cache"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/repository"
)

// LockOptions 顾客锁参数
type LockOptions struct {
	TTL  time.Duration
	Wait time.Duration
}

func (o LockOptions) normalized() LockOptions {
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	if o.Wait <= 0 {
		o.Wait = 5 * time.Second
	}
	return o
}

func customerLockKey(customerID uint) string {
	return fmt.Sprintf("customer:%d", customerID)
}

// withCustomerLock 在顾客级互斥下执行 fn
// 购物车修改与结算共用同一把锁。
func withCustomerLock(ctx context.Context, locker cache.Locker, customerID uint, opts LockOptions, fn func() error) error {
	if locker == nil {
		return fn()
	}
	opts = opts.normalized()
	release, err := locker.Acquire(ctx, customerLockKey(customerID), opts.TTL, opts.Wait)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotAcquired) || errors.Is(err, context.DeadlineExceeded) {
			return ErrCheckoutBusy
		}
		logger.Warnw("customer_lock_acquire_failed", "customer_id", customerID, "error", err)
		return persistenceError(err)
	}
	defer release()
	return fn()
}

// cartWriteError 版本冲突视为并发修改
func cartWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrCartVersionConflict) {
		return ErrCheckoutBusy
	}
	return persistenceError(err)
}
