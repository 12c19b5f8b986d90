package repo

import "gorm.io/gorm"

type UserRepo struct {
	DB *gorm.DB
}

type AuditRepo struct {
	DB *gorm.DB
}
