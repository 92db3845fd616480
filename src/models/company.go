package models

import "vms/src/types"

type Company struct {
	ID           uint   `gorm:"primarykey;uniqueIndex:slugid" json:"id"`
	Name         string `json:"name,omitempty"`
	Slug         string `gorm:"uniqueIndex:slugid" json:"slug"`
	ContactEmail string `json:"email,omitempty"`
	LogoPath     string `json:"logo_path,omitempty"`

	AutoApproval       bool `gorm:"default:false" json:"auto_approval"`
	AutoCheckIn        bool `gorm:"default:false" json:"auto_check_in"`
	EnableSelfRegister bool `gorm:"default:true" json:"enable_self_register"`
	RequirePhoto       bool `gorm:"default:false" json:"require_photo"`

	Metadata *types.Metadata `gorm:"type:jsonb" json:"metadata,omitempty"`

	Users  []User  `gorm:"foreignKey:company_id" json:"-"`
	Visits []Visit `gorm:"foreignKey:company_id" json:"-"`

	types.Timestamps
}
