package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// RecurrentTaskRepository handles persistence for recurrence definitions.
type RecurrentTaskRepository struct {
	db *gorm.DB
}

func NewRecurrentTaskRepository(db *gorm.DB) *RecurrentTaskRepository {
	return &RecurrentTaskRepository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *RecurrentTaskRepository) WithTx(tx *gorm.DB) *RecurrentTaskRepository {
	return &RecurrentTaskRepository{db: tx}
}

func (r *RecurrentTaskRepository) Create(ctx context.Context, rec *model.RecurrentTask) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create recurrence: %w", err)
	}
	return nil
}

func (r *RecurrentTaskRepository) Save(ctx context.Context, rec *model.RecurrentTask) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save recurrence: %w", err)
	}
	return nil
}

func (r *RecurrentTaskRepository) FindByID(ctx context.Context, id uint) (*model.RecurrentTask, error) {
	var rec model.RecurrentTask
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
