package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// AbsenceRepository is the read side of user absence records.
type AbsenceRepository struct {
	db *gorm.DB
}

func NewAbsenceRepository(db *gorm.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ExistsOnDate reports whether the user has a vacation or legal absence on
// the exact calendar day.
func (r *AbsenceRepository) ExistsOnDate(ctx context.Context, userID uint, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserAbsence{}).
		Where("user_id = ? AND date >= ? AND date < ?", userID, day, day.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check absence: %w", err)
	}
	return count > 0, nil
}

// DatesBetween returns the user's absence dates within [from, to] inclusive.
func (r *AbsenceRepository) DatesBetween(ctx context.Context, userID uint, from, to time.Time) ([]time.Time, error) {
	var absences []model.UserAbsence
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to.AddDate(0, 0, 1)).
		Find(&absences).Error
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	dates := make([]time.Time, 0, len(absences))
	for _, a := range absences {
		dates = append(dates, a.Date)
	}
	return dates, nil
}

// CountOnDate counts how many users are absent on the given day.
func (r *AbsenceRepository) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserAbsence{}).
		Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	return count, nil
}
