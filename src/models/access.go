package models

import (
	"time"
	"vms/src/types"
)

type Access struct {
	ID        uint               `gorm:"primarykey" json:"id"`
	Name      string             `json:"name,omitempty"`
	Location  string             `json:"location,omitempty"`
	Code      string             `gorm:"uniqueIndex" json:"code,omitempty"`
	StartsAt  time.Time          `json:"starts_at,omitempty"`
	EndsAt    time.Time          `json:"ends_at,omitempty"`
	Status    types.AccessStatus `gorm:"default:'active'" json:"status,omitempty"`
	CompanyID uint               `json:"company_id,omitempty"`
	CreatedBy uint               `json:"created_by,omitempty"`

	// Reminder emails go out once per access.
	ReminderSent bool `gorm:"default:false" json:"-"`

	Creator     *User        `gorm:"foreignKey:created_by" json:"-"`
	Company     *Company     `gorm:"foreignKey:company_id" json:"-"`
	Visits      []Visit      `gorm:"foreignKey:access_id" json:"visits,omitempty"`
	Invitations []Invitation `gorm:"foreignKey:access_id" json:"invitations,omitempty"`

	types.Timestamps
}
