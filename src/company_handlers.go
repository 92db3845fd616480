package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"vms/src/config"
	"vms/src/db"
	"vms/src/lib"
	"vms/src/middlewares"
	"vms/src/models"
	"vms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func companyConfigCacheKey(companyId uint) string {
	return fmt.Sprintf("company::%d:config", companyId)
}

func companyHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	company := g.Group("/company")
	company.
		GET("/config", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			rd := lib.GetRedisClient()
			if rd != nil {
				cached := rd.Get(context.Background(), companyConfigCacheKey(companyId)).Val()
				if cached != "" {
					var c models.Company
					if err := json.Unmarshal([]byte(cached), &c); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": c})
						return
					}
				}
			}
			var c models.Company
			d := db.GetDb()
			if err := d.Where(&models.Company{ID: companyId}).First(&c).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if rd != nil {
				go func() {
					b, _ := json.Marshal(&c)
					rd.Set(context.Background(), companyConfigCacheKey(companyId), string(b), 0)
				}()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": c})
		}).
		PUT("/config", middlewares.RequireRoles(), func(ctx *gin.Context) {
			var body types.UpdateCompanyConfigRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
			}
			if body.ContactEmail != nil {
				updates["contact_email"] = *body.ContactEmail
			}
			if body.AutoApproval != nil {
				updates["auto_approval"] = *body.AutoApproval
			}
			if body.AutoCheckIn != nil {
				updates["auto_check_in"] = *body.AutoCheckIn
			}
			if body.EnableSelfRegister != nil {
				updates["enable_self_register"] = *body.EnableSelfRegister
			}
			if body.RequirePhoto != nil {
				updates["require_photo"] = *body.RequirePhoto
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "No hay campos para actualizar"})
				return
			}
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				return tx.Model(&models.Company{}).Where("id = ?", companyId).Updates(updates).Error
			}); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if rd := lib.GetRedisClient(); rd != nil {
				go rd.Del(context.Background(), companyConfigCacheKey(companyId))
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/upload-logo", middlewares.RequireRoles(), func(ctx *gin.Context) {
			file, err := ctx.FormFile("logo")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Se requiere un archivo de logo"})
				return
			}
			ext := strings.ToLower(path.Ext(file.Filename))
			if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "Formato de imagen no soportado"})
				return
			}
			companyId := ctx.GetUint("company")
			assets := os.Getenv("TEMP_DIR")
			filename := fmt.Sprintf("company-%d-logo%s", companyId, ext)
			filePath := path.Join(assets, filename)
			if err := ctx.SaveUploadedFile(file, filePath); err != nil {
				log.Printf("Could not save uploaded logo: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			d := db.GetDb()
			if err := d.Model(&models.Company{}).Where("id = ?", companyId).Update("logo_path", filename).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logoURL := fmt.Sprintf("%s/api/v1/share/%s", config.APIHost(), filename)
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"logo": filename, "url": logoURL}})
		}).
		GET("/qr-code", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			var c models.Company
			d := db.GetDb()
			if err := d.Where(&models.Company{ID: companyId}).First(&c).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			registerURL := fmt.Sprintf("%s/register/%s", config.AppHost(), c.Slug)
			qrc, err := qrcode.New(registerURL)
			if err != nil {
				log.Printf("Could not build qrcode: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			assets := os.Getenv("TEMP_DIR")
			filePath := path.Join(assets, fmt.Sprintf("company-%d-register.jpeg", companyId))
			if err := qrc.Save(filePath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filePath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.FileAttachment(filePath, "register-qr.jpeg")
		})
	return g
}
