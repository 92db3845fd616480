package models

import (
	"time"
	"vms/src/types"
)

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Name         string     `json:"name,omitempty"`
	Email        string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Role         string     `gorm:"default:'host'" json:"role,omitempty"`
	CompanyID    uint       `json:"company_id,omitempty"`
	LastActive   *time.Time `json:"last_active,omitempty"`

	Company *Company `gorm:"foreignKey:company_id" json:"-"`
	Visits  []Visit  `gorm:"foreignKey:host_id" json:"visits,omitempty"`

	types.Timestamps
}
