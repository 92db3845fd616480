package models

import (
	"time"
	"vms/src/types"
)

// Approval binds a one-shot host decision token to a visit. Once used, the
// token is dead regardless of the decision taken.
type Approval struct {
	ID        uint                   `gorm:"primarykey" json:"id"`
	VisitID   uint                   `json:"visit_id,omitempty"`
	HostID    uint                   `json:"host_id,omitempty"`
	Token     string                 `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time              `json:"expires_at,omitempty"`
	Used      bool                   `gorm:"default:false" json:"used"`
	Decision  types.ApprovalDecision `json:"decision,omitempty"`

	Visit *Visit `gorm:"foreignKey:visit_id" json:"visit,omitempty"`
	Host  *User  `gorm:"foreignKey:host_id" json:"-"`

	types.Timestamps
}
