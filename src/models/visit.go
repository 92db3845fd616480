package models

import (
	"time"
	"vms/src/types"
)

type Visit struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	VisitorName    string `json:"visitor_name,omitempty"`
	VisitorCompany string `json:"visitor_company,omitempty"`
	VisitorEmail   string `json:"visitor_email,omitempty"`
	VisitorPhone   string `json:"visitor_phone,omitempty"`
	VisitorDoc     string `json:"visitor_document,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`

	HostID    uint `json:"host_id,omitempty"`
	CompanyID uint `json:"company_id,omitempty"`

	Status        types.VisitStatus `gorm:"default:'pending'" json:"status,omitempty"`
	VisitType     types.VisitType   `gorm:"default:'spontaneous'" json:"visit_type,omitempty"`
	Origin        types.VisitOrigin `gorm:"default:'staff'" json:"origin,omitempty"`
	ScheduledDate *time.Time        `json:"scheduled_date,omitempty"`
	CheckInTime   *time.Time        `json:"check_in_time,omitempty"`
	CheckOutTime  *time.Time        `json:"check_out_time,omitempty"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
	RejectedAt    *time.Time        `json:"rejected_at,omitempty"`

	// Single use per check-in cycle; nulled on completion.
	QRToken *string `json:"qr_token,omitempty"`

	AccessID        *uint  `json:"access_id,omitempty"`
	AccessCode      string `json:"access_code,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	Notes           string `json:"notes,omitempty"`

	Host    *User        `gorm:"foreignKey:host_id" json:"host,omitempty"`
	Company *Company     `gorm:"foreignKey:company_id" json:"-"`
	Access  *Access      `gorm:"foreignKey:access_id" json:"access,omitempty"`
	Events  []VisitEvent `gorm:"foreignKey:visit_id" json:"events,omitempty"`

	types.Timestamps
}
