package models

import (
	"time"
	"vms/src/types"
)

type Invitation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	AccessID  uint      `json:"access_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Token     string    `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Completed bool      `gorm:"default:false" json:"completed"`
	VisitID   *uint     `json:"visit_id,omitempty"`

	Access *Access `gorm:"foreignKey:access_id" json:"access,omitempty"`

	types.Timestamps
}
