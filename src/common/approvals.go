package common

import (
	"fmt"
	"time"
	"vms/src/config"
	"vms/src/models"
	"vms/src/utils"

	"gorm.io/gorm"
)

// CreateApprovalRequest issues a one-shot approval token bound to the visit
// and its host. The caller emails the action URLs after the transaction
// commits.
func CreateApprovalRequest(tx *gorm.DB, visit *models.Visit) (*models.Approval, error) {
	approval := models.Approval{
		VisitID:   visit.ID,
		HostID:    visit.HostID,
		Token:     utils.NewOpaqueToken(),
		ExpiresAt: time.Now().Add(config.APPROVAL_TOKEN_TTL * time.Hour),
	}
	if err := tx.Create(&approval).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

// ApprovalURLs builds the frontend links embedded in the approval-request
// email.
func ApprovalURLs(token string) (approve string, reject string) {
	appHost := config.AppHost()
	approve = fmt.Sprintf("%s/approvals/%s/approve", appHost, token)
	reject = fmt.Sprintf("%s/approvals/%s/reject", appHost, token)
	return approve, reject
}

// InvitationURL builds the public pre-registration link for an access
// invitation.
func InvitationURL(token string) string {
	return fmt.Sprintf("%s/invitations/%s", config.AppHost(), token)
}
