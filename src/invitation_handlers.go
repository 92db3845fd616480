package main

import (
	"errors"
	"net/http"
	"time"
	"vms/src/common"
	"vms/src/config"
	"vms/src/db"
	"vms/src/lib/mailer"
	"vms/src/middlewares"
	"vms/src/models"
	"vms/src/types"
	"vms/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func invitationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	staff := middlewares.RequireRoles(types.ROLE_RECEPTION, types.ROLE_HOST)
	g.
		POST("/invitations", staff, func(ctx *gin.Context) {
			var body types.CreateInvitationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			var access models.Access
			invitation := models.Invitation{
				Email: body.Email,
				Token: utils.NewOpaqueToken(),
			}
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where(&models.Access{ID: body.AccessID, CompanyID: companyId}).First(&access).Error; err != nil {
					return err
				}
				if access.Status == types.ACCESS_CANCELLED {
					return errors.New("cannot invite guests to a cancelled access")
				}
				invitation.AccessID = access.ID
				invitation.ExpiresAt = access.EndsAt
				return tx.Create(&invitation).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			mailer.Dispatch(mailer.TemplateAccessInvitation, []string{invitation.Email}, mailer.Data{
				AccessName: access.Name,
				Location:   access.Location,
				StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
				InviteURL:  common.InvitationURL(invitation.Token),
			})
			ctx.JSON(http.StatusCreated, gin.H{"data": invitation})
		})
	return g
}

// publicInvitationRoutes serves the guest-facing side of invitations, no auth.
func publicInvitationRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/invitations/verify/:token", func(ctx *gin.Context) {
			var params types.TokenRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var invitation models.Invitation
			d := db.GetDb()
			if err := d.
				Where(&models.Invitation{Token: params.Token}).
				Preload("Access").
				First(&invitation).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if invitation.Completed {
				ctx.JSON(http.StatusGone, gin.H{"message": "La invitación ya fue utilizada"})
				return
			}
			if time.Now().After(invitation.ExpiresAt) {
				ctx.JSON(http.StatusGone, gin.H{"message": "La invitación ha expirado"})
				return
			}
			if invitation.Access != nil && invitation.Access.Status == types.ACCESS_CANCELLED {
				ctx.JSON(http.StatusGone, gin.H{"message": "El acceso fue cancelado"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": invitation})
		}).
		POST("/invitations/complete", func(ctx *gin.Context) {
			var body types.CompleteInvitationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var invitation models.Invitation
			var visit models.Visit
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Invitation{Token: body.Token}).
					Preload("Access").
					First(&invitation).
					Error; err != nil {
					return err
				}
				if invitation.Completed {
					return errors.New("invitation has already been used")
				}
				if time.Now().After(invitation.ExpiresAt) {
					return errors.New("invitation has expired")
				}
				access := invitation.Access
				if access == nil || access.Status == types.ACCESS_CANCELLED {
					return errors.New("access is no longer available")
				}
				var company models.Company
				if err := tx.Where(&models.Company{ID: access.CompanyID}).First(&company).Error; err != nil {
					return err
				}
				visit = models.Visit{
					VisitorName:    body.VisitorName,
					VisitorCompany: body.VisitorCompany,
					VisitorEmail:   body.VisitorEmail,
					VisitorPhone:   body.VisitorPhone,
					VisitorDoc:     body.VisitorDoc,
					PhotoURL:       body.PhotoURL,
					HostID:         access.CreatedBy,
					CompanyID:      access.CompanyID,
					AccessID:       &access.ID,
					AccessCode:     access.Code,
					VisitType:      types.VISIT_ACCESS_CODE,
					Origin:         types.ORIGIN_SELF_REGISTER,
					ScheduledDate:  &access.StartsAt,
				}
				if _, err := finalizeVisitCreation(tx, &visit, &company); err != nil {
					return err
				}
				return tx.Model(&models.Invitation{}).
					Where("id = ?", invitation.ID).
					Updates(map[string]any{"completed": true, "visit_id": visit.ID}).
					Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": visit, "message": "Registro completado"})
		})
	return g
}
