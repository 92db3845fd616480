package main

import (
	"errors"
	"log"
	"net/http"
	"time"
	"vms/src/common"
	"vms/src/db"
	"vms/src/models"
	"vms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// consumeApprovalToken resolves a host decision link. The token is one-shot:
// expired or already-used tokens fail before the visit is touched.
func consumeApprovalToken(ctx *gin.Context, decision types.ApprovalDecision) {
	var params types.TokenRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var reason string
	if decision == types.APPROVAL_REJECT {
		reason = ctx.Query("reason")
	}
	target := types.VISIT_APPROVED
	if decision == types.APPROVAL_REJECT {
		target = types.VISIT_REJECTED
	}

	var visit models.Visit
	var company models.Company
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		var approval models.Approval
		if err := tx.Where(&models.Approval{Token: params.Token}).First(&approval).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("approval token not found")
			}
			return err
		}
		if approval.Used {
			return errors.New("this approval link has already been used")
		}
		if approval.ExpiresAt.Before(time.Now()) {
			return errors.New("this approval link has expired")
		}
		if err := tx.Where(&models.Visit{ID: approval.VisitID}).First(&visit).Error; err != nil {
			return err
		}
		if err := tx.Where(&models.Company{ID: visit.CompanyID}).First(&company).Error; err != nil {
			return err
		}
		events, err := common.ApplyTransition(&visit, target, common.TransitionOpts{
			Company: &company,
			Reason:  reason,
		})
		if err != nil {
			return err
		}
		if err := tx.Save(&visit).Error; err != nil {
			return err
		}
		for _, et := range events {
			ev := models.VisitEvent{VisitID: visit.ID, Type: et, By: approval.HostID}
			if err := tx.Create(&ev).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Approval{}).
			Where("id = ?", approval.ID).
			Updates(map[string]any{"used": true, "decision": decision}).
			Error
	})
	if err != nil {
		log.Printf("Error consuming approval token: %s\n", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dispatchTransitionMail(d, &visit, &company, target)
	ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
		"visit_id": visit.ID,
		"status":   visit.Status,
	}})
}

func approvalHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	approvals := g.Group("/approvals")
	approvals.
		GET("/:token/approve", func(ctx *gin.Context) {
			consumeApprovalToken(ctx, types.APPROVAL_APPROVE)
		}).
		GET("/:token/reject", func(ctx *gin.Context) {
			consumeApprovalToken(ctx, types.APPROVAL_REJECT)
		})
	return g
}
