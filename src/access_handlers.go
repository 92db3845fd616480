package main

import (
	"errors"
	"log"
	"net/http"
	"strings"
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
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newAccessCode derives a short shareable code for an access.
func newAccessCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// accessGuestEmails collects every address attached to the access: completed
// and organizer-added visits plus pending invitations.
func accessGuestEmails(d *gorm.DB, accessId uint) []string {
	seen := map[string]bool{}
	var emails []string
	var visits []models.Visit
	d.Where("access_id = ?", accessId).Find(&visits)
	for _, v := range visits {
		if v.VisitorEmail != "" && !seen[v.VisitorEmail] {
			seen[v.VisitorEmail] = true
			emails = append(emails, v.VisitorEmail)
		}
	}
	var invitations []models.Invitation
	d.Where("access_id = ? AND completed = ?", accessId, false).Find(&invitations)
	for _, inv := range invitations {
		if inv.Email != "" && !seen[inv.Email] {
			seen[inv.Email] = true
			emails = append(emails, inv.Email)
		}
	}
	return emails
}

func accessHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	staff := middlewares.RequireRoles(types.ROLE_RECEPTION, types.ROLE_HOST)
	accesses := g.Group("/accesses")
	accesses.Use(staff)
	accesses.
		GET("", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			var list []models.Access
			d := db.GetDb()
			if err := d.
				Where("company_id = ?", companyId).
				Preload("Invitations").
				Order("starts_at desc").
				Find(&list).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": list, "count": len(list)})
		}).
		POST("", func(ctx *gin.Context) {
			var body types.CreateAccessRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.StartsAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			endsAt, err := time.Parse(config.TIME_PARSE_FORMAT, body.EndsAt)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			userId := ctx.GetUint("id")
			access := models.Access{
				Name:      body.Name,
				Location:  body.Location,
				Code:      newAccessCode(),
				StartsAt:  startsAt,
				EndsAt:    endsAt,
				CompanyID: companyId,
				CreatedBy: userId,
				Status:    types.ACCESS_ACTIVE,
			}
			var invitations []models.Invitation
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&access).Error; err != nil {
					return err
				}
				for _, email := range body.Guests {
					inv := models.Invitation{
						AccessID:  access.ID,
						Email:     email,
						Token:     utils.NewOpaqueToken(),
						ExpiresAt: endsAt,
					}
					if err := tx.Create(&inv).Error; err != nil {
						return err
					}
					invitations = append(invitations, inv)
				}
				return nil
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var creator models.User
			if err := d.Where(&models.User{ID: userId}).First(&creator).Error; err == nil {
				mailer.Dispatch(mailer.TemplateAccessCreated, []string{creator.Email}, mailer.Data{
					HostName:   creator.Name,
					AccessName: access.Name,
					Location:   access.Location,
					StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
				})
			}
			for _, inv := range invitations {
				mailer.Dispatch(mailer.TemplateAccessInvitation, []string{inv.Email}, mailer.Data{
					AccessName: access.Name,
					Location:   access.Location,
					StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
					InviteURL:  common.InvitationURL(inv.Token),
				})
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": access})
		}).
		PUT("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateAccessRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
			}
			if body.Location != nil {
				updates["location"] = *body.Location
			}
			if body.StartsAt != nil {
				startsAt, err := time.Parse(config.TIME_PARSE_FORMAT, *body.StartsAt)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				updates["starts_at"] = startsAt
				// Date moved: the reminder needs to go out again.
				updates["reminder_sent"] = false
			}
			if body.EndsAt != nil {
				endsAt, err := time.Parse(config.TIME_PARSE_FORMAT, *body.EndsAt)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				updates["ends_at"] = endsAt
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "No hay campos para actualizar"})
				return
			}
			var access models.Access
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where(&models.Access{ID: params.ID, CompanyID: companyId}).First(&access).Error; err != nil {
					return err
				}
				if access.Status == types.ACCESS_CANCELLED {
					return errors.New("a cancelled access cannot be modified")
				}
				if err := tx.Model(&models.Access{}).Where("id = ?", access.ID).Updates(updates).Error; err != nil {
					return err
				}
				return tx.Where(&models.Access{ID: access.ID}).First(&access).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			data := mailer.Data{
				AccessName: access.Name,
				Location:   access.Location,
				StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
			}
			var creator models.User
			if err := d.Where(&models.User{ID: access.CreatedBy}).First(&creator).Error; err == nil {
				data.HostName = creator.Name
				mailer.Dispatch(mailer.TemplateAccessModifiedOwner, []string{creator.Email}, data)
			}
			if guests := accessGuestEmails(d, access.ID); len(guests) > 0 {
				mailer.Dispatch(mailer.TemplateAccessModifiedGuest, guests, data)
			}
			ctx.JSON(http.StatusOK, gin.H{"data": access})
		}).
		DELETE("/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			var access models.Access
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where(&models.Access{ID: params.ID, CompanyID: companyId}).First(&access).Error; err != nil {
					return err
				}
				return tx.Model(&models.Access{}).Where("id = ?", access.ID).Update("status", types.ACCESS_CANCELLED).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			data := mailer.Data{
				AccessName: access.Name,
				StartsAt:   access.StartsAt.Format(config.TIME_PARSE_FORMAT),
			}
			recipients := accessGuestEmails(d, access.ID)
			var creator models.User
			if err := d.Where(&models.User{ID: access.CreatedBy}).First(&creator).Error; err == nil {
				recipients = append(recipients, creator.Email)
			}
			if len(recipients) > 0 {
				mailer.Dispatch(mailer.TemplateAccessCancelled, recipients, data)
			}
			ctx.Status(http.StatusNoContent)
		}).
		POST("/:id/guests", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.AddAccessGuestRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			var access models.Access
			var company models.Company
			visit := models.Visit{
				VisitorName:    body.VisitorName,
				VisitorCompany: body.VisitorCompany,
				VisitorEmail:   body.VisitorEmail,
				VisitorPhone:   body.VisitorPhone,
				VisitorDoc:     body.VisitorDoc,
				PhotoURL:       body.PhotoURL,
				CompanyID:      companyId,
				VisitType:      types.VISIT_ACCESS_CODE,
				Origin:         types.ORIGIN_ACCESS,
			}
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where(&models.Access{ID: params.ID, CompanyID: companyId}).First(&access).Error; err != nil {
					return err
				}
				if access.Status == types.ACCESS_CANCELLED {
					return errors.New("cannot add guests to a cancelled access")
				}
				if err := tx.Where(&models.Company{ID: companyId}).First(&company).Error; err != nil {
					return err
				}
				visit.AccessID = &access.ID
				visit.AccessCode = access.Code
				visit.HostID = access.CreatedBy
				visit.ScheduledDate = &access.StartsAt
				_, err := finalizeVisitCreation(tx, &visit, &company)
				return err
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": visit})
		})
	return g
}
