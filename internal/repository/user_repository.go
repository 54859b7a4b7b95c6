package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fpagador/astrade-sub000/internal/model"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListWithChatID returns mobile users that linked a Telegram chat, i.e. the
// reachable audience for reminder pushes.
func (r *UserRepository) ListWithChatID(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND telegram_chat_id IS NOT NULL", model.RoleUser).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list notifiable users: %w", err)
	}
	return users, nil
}

// CountByRole counts users holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
