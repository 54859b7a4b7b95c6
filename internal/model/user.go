package model

import "time"

// Role controls which surface a user may act on.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// User is either a management user (admin/manager) or a mobile end user
// whose tasks are administered for them.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Surname        string
	Email          string `gorm:"uniqueIndex"`
	Role           Role   `gorm:"default:user"`
	Phone          string
	Photo          string
	TelegramChatID *int64 // reminder delivery channel, nil when not linked
	WorkCalendarID *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
