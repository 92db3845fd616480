package main

import (
	"errors"
	"log"
	"net/http"
	"vms/src/common"
	"vms/src/db"
	"vms/src/middlewares"
	"vms/src/models"
	"vms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func blacklistHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	staff := middlewares.RequireRoles(types.ROLE_RECEPTION)
	g.
		GET("/blacklist", staff, func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			var entries []models.BlacklistEntry
			d := db.GetDb()
			if err := d.
				Where(&models.BlacklistEntry{CompanyID: companyId}).
				Where("is_active = ?", true).
				Order("created_at desc").
				Find(&entries).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries)})
		}).
		POST("/blacklist", staff, func(ctx *gin.Context) {
			var body types.CreateBlacklistRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			idType, identifier, err := common.ResolveBlacklistInput(&body)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Se requiere un identificador del visitante"})
				return
			}
			companyId := ctx.GetUint("company")
			entry := models.BlacklistEntry{
				IdentifierType: idType,
				Identifier:     identifier,
				VisitorName:    body.VisitorName,
				Reason:         body.Reason,
				CompanyID:      companyId,
				IsActive:       true,
				CreatedBy:      ctx.GetUint("id"),
			}
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.BlacklistEntry{}).
					Where("company_id = ? AND identifier = ? AND is_active = ?", companyId, identifier, true).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return errors.New("an active entry for this identifier already exists")
				}
				return tx.Create(&entry).Error
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": entry})
		}).
		DELETE("/blacklist/:id", staff, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				var entry models.BlacklistEntry
				if err := tx.Where(&models.BlacklistEntry{ID: params.ID, CompanyID: companyId}).First(&entry).Error; err != nil {
					return err
				}
				// Soft delete: the entry stays for the audit trail.
				return tx.Model(&models.BlacklistEntry{}).Where("id = ?", entry.ID).Update("is_active", false).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/blacklist/check", staff, func(ctx *gin.Context) {
			var query types.BlacklistCheckQuery
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			d := db.GetDb()
			entry, err := common.FindActiveEntry(d, companyId, query.Email, query.Document, query.Phone)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if entry == nil {
				ctx.JSON(http.StatusOK, gin.H{"blacklisted": false})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"blacklisted": true, "entry": entry})
		})
	return g
}
