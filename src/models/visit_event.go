package models

import "vms/src/types"

// VisitEvent is the append-only check-in/check-out audit trail. Rows are
// never updated or deleted.
type VisitEvent struct {
	ID      uint                 `gorm:"primarykey" json:"id"`
	VisitID uint                 `gorm:"index" json:"visit_id,omitempty"`
	Type    types.VisitEventType `json:"type,omitempty"`
	By      uint                 `json:"by,omitempty"`

	Visit *Visit `gorm:"foreignKey:visit_id" json:"-"`

	types.Timestamps
}
