package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"      json:"id"`
	Username     string     `gorm:"index;not null"                json:"username"`
	Name         string     `gorm:"not null"                      json:"name"`
	PasswordHash string     `gorm:"not null"                      json:"-"`
	Role         string     `gorm:"not null;default:user"         json:"role"`
	CreatedBy    uint       `gorm:"default:0"                     json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	// Soft delete marker. Username uniqueness only holds among rows where
	// DeletedAt is null, so a deleted user's name can be reused.
	DeletedAt    *time.Time `gorm:"index"                         json:"-"`
}

type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   uint           `gorm:"index;not null"           json:"actorId"`
	Entity    string         `gorm:"not null"                 json:"entity"`
	EntityID  uint           `gorm:"not null"                 json:"entityId"`
	Action    string         `gorm:"not null"                 json:"action"`
	Before    datatypes.JSON `json:"before"`
	After     datatypes.JSON `json:"after"`
	CreatedAt time.Time      `json:"createdAt"`
}
