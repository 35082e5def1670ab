package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

type ScheduleRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Schedule) ([]*types.Schedule, error)
}

type scheduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleRepo {
	return &scheduleRepo{db: db, log: baseLog.With("repo", "ScheduleRepo")}
}

func (r *scheduleRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Schedule) ([]*types.Schedule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Schedule{}, nil
	}
	if err := transaction.WithContext(ctx).Create(rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
