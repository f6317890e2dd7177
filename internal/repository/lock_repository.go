package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consult_scheduler/internal/model"
	"github.com/Freeeeeet/consult_scheduler/internal/repository/base"
)

// LockRepository упорядочивает запись броней через advisory-блокировки транзакции.
type LockRepository struct {
	*base.Repository
}

func NewLockRepository(pool base.Pool) *LockRepository {
	return &LockRepository{Repository: base.NewRepository(pool)}
}

// WithSlotLock выполняет fn в транзакции под блокировкой (тип, дата).
// Блокировка снимается при commit или rollback.
func (r *LockRepository) WithSlotLock(ctx context.Context, bookingType string, date time.Time, fn func(ctx context.Context) error) error {
	key := bookingType + ":" + model.DateKey(date)

	return r.InTx(ctx, func(ctx context.Context) error {
		if _, err := r.ExecAffected(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("acquire slot lock %s: %w", key, err)
		}
		return fn(ctx)
	})
}
