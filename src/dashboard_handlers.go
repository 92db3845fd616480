package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
	"vms/src/db"
	"vms/src/lib"
	"vms/src/middlewares"
	"vms/src/models"
	"vms/src/types"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type dashboardStats struct {
	Today      int64 `json:"today"`
	Pending    int64 `json:"pending"`
	CheckedIn  int64 `json:"checked_in"`
	Completed  int64 `json:"completed"`
	Rejected   int64 `json:"rejected"`
	Blacklists int64 `json:"blacklist_entries"`
}

var visitExportHeader = []string{
	"Visitante",
	"Empresa",
	"Email",
	"Anfitrión",
	"Estado",
	"Fecha programada",
	"Entrada",
	"Salida",
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func dashboardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	staff := middlewares.RequireRoles(types.ROLE_RECEPTION)
	dashboard := g.Group("/dashboard")
	dashboard.Use(staff)
	dashboard.
		GET("/stats", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			cacheKey := fmt.Sprintf("company::%d:dashboard:stats", companyId)
			rd := lib.GetRedisClient()
			if rd != nil {
				if cached := rd.Get(context.Background(), cacheKey).Val(); cached != "" {
					var stats dashboardStats
					if err := json.Unmarshal([]byte(cached), &stats); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": stats})
						return
					}
				}
			}
			var stats dashboardStats
			now := time.Now()
			dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			d := db.GetDb()
			d.Model(&models.Visit{}).
				Where("company_id = ? AND scheduled_date BETWEEN ? AND ?", companyId, dayStart, dayStart.Add(24*time.Hour)).
				Count(&stats.Today)
			d.Model(&models.Visit{}).Where("company_id = ? AND status = ?", companyId, types.VISIT_PENDING).Count(&stats.Pending)
			d.Model(&models.Visit{}).Where("company_id = ? AND status = ?", companyId, types.VISIT_CHECKED_IN).Count(&stats.CheckedIn)
			d.Model(&models.Visit{}).Where("company_id = ? AND status = ?", companyId, types.VISIT_COMPLETED).Count(&stats.Completed)
			d.Model(&models.Visit{}).Where("company_id = ? AND status = ?", companyId, types.VISIT_REJECTED).Count(&stats.Rejected)
			d.Model(&models.BlacklistEntry{}).Where("company_id = ? AND is_active = ?", companyId, true).Count(&stats.Blacklists)
			if rd != nil {
				go func() {
					b, _ := json.Marshal(&stats)
					rd.SetEx(context.Background(), cacheKey, string(b), time.Minute)
				}()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": stats})
		}).
		GET("/recent-visits", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			var visits []models.Visit
			d := db.GetDb()
			if err := d.
				Where("company_id = ?", companyId).
				Preload("Host").
				Order("created_at desc").
				Limit(10).
				Find(&visits).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": visits})
		}).
		GET("/analytics", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			since := time.Now().AddDate(0, 0, -30)
			type dailyCount struct {
				Day   time.Time `json:"day"`
				Count int64     `json:"count"`
			}
			var perDay []dailyCount
			d := db.GetDb()
			if err := d.
				Model(&models.Visit{}).
				Select("date_trunc('day', scheduled_date) AS day, count(*) AS count").
				Where("company_id = ? AND scheduled_date >= ?", companyId, since).
				Group("day").
				Order("day asc").
				Scan(&perDay).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			type statusCount struct {
				Status string `json:"status"`
				Count  int64  `json:"count"`
			}
			var perStatus []statusCount
			if err := d.
				Model(&models.Visit{}).
				Select("status, count(*) AS count").
				Where("company_id = ? AND scheduled_date >= ?", companyId, since).
				Group("status").
				Scan(&perStatus).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"per_day":    perDay,
				"per_status": perStatus,
			}})
		}).
		GET("/export", func(ctx *gin.Context) {
			companyId := ctx.GetUint("company")
			var visits []models.Visit
			d := db.GetDb()
			if err := d.
				Where("company_id = ?", companyId).
				Preload("Host").
				Order("scheduled_date desc").
				Limit(5000).
				Find(&visits).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			f := excelize.NewFile()
			sheet := "Visitas"
			f.SetSheetName("Sheet1", sheet)
			for i, h := range visitExportHeader {
				cell, _ := excelize.CoordinatesToCellName(i+1, 1)
				f.SetCellValue(sheet, cell, h)
			}
			for row, v := range visits {
				hostName := ""
				if v.Host != nil {
					hostName = v.Host.Name
				}
				values := []any{
					v.VisitorName,
					v.VisitorCompany,
					v.VisitorEmail,
					hostName,
					string(v.Status),
					fmtTimePtr(v.ScheduledDate),
					fmtTimePtr(v.CheckInTime),
					fmtTimePtr(v.CheckOutTime),
				}
				for col, val := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
					f.SetCellValue(sheet, cell, val)
				}
			}
			buf, err := f.WriteToBuffer()
			if err != nil {
				log.Printf("Error building visits export: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			filename := fmt.Sprintf("visitas-%s.xlsx", time.Now().Format("2006-01-02"))
			ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
			ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		})
	return g
}
