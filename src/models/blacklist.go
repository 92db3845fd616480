package models

import "vms/src/types"

type BlacklistEntry struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	IdentifierType types.IdentifierType `json:"identifier_type,omitempty"`
	Identifier     string               `gorm:"index:blacklist_identifier" json:"identifier,omitempty"`
	VisitorName    string               `json:"visitor_name,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	CompanyID      uint                 `gorm:"index:blacklist_identifier" json:"company_id,omitempty"`
	IsActive       bool                 `gorm:"default:true" json:"is_active"`
	CreatedBy      uint                 `json:"created_by,omitempty"`

	Company *Company `gorm:"foreignKey:company_id" json:"-"`

	types.Timestamps
}
