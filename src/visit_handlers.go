package main

import (
	"errors"
	"log"
	"net/http"
	"time"
	"vms/src/common"
	"vms/src/config"
	"vms/src/db"
	"vms/src/lib/mailer"
	"vms/src/middlewares"
	"vms/src/models"
	"vms/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// finalizeVisitCreation derives the initial status, persists the visit plus
// its event rows and, when the visit lands in pending, issues the host
// approval token. Runs inside the caller's transaction.
func finalizeVisitCreation(tx *gorm.DB, visit *models.Visit, company *models.Company) (*models.Approval, error) {
	events := common.InitializeVisit(visit, company, time.Now())
	if err := tx.Create(visit).Error; err != nil {
		return nil, err
	}
	for _, et := range events {
		if err := tx.Create(&models.VisitEvent{VisitID: visit.ID, Type: et}).Error; err != nil {
			return nil, err
		}
	}
	if visit.Status != types.VISIT_PENDING {
		return nil, nil
	}
	return common.CreateApprovalRequest(tx, visit)
}

// notifyVisitCreated fans out the creation emails after commit. A pending
// visit triggers the host approval request; an auto-approved one tells the
// visitor directly.
func notifyVisitCreated(visit *models.Visit, host *models.User, company *models.Company, approval *models.Approval) {
	mailer.Dispatch(mailer.TemplateVisitConfirmation, []string{visit.VisitorEmail}, mailer.Data{
		VisitorName: visit.VisitorName,
		CompanyName: company.Name,
	})
	if approval != nil && host != nil {
		approveURL, rejectURL := common.ApprovalURLs(approval.Token)
		mailer.Dispatch(mailer.TemplateApprovalRequest, []string{host.Email}, mailer.Data{
			HostName:    host.Name,
			VisitorName: visit.VisitorName,
			ApproveURL:  approveURL,
			RejectURL:   rejectURL,
		})
		return
	}
	if visit.Status == types.VISIT_APPROVED || visit.Status == types.VISIT_CHECKED_IN {
		mailer.Dispatch(mailer.TemplateVisitorApproved, []string{visit.VisitorEmail}, mailer.Data{
			VisitorName: visit.VisitorName,
			CompanyName: company.Name,
		})
	}
}

// dispatchTransitionMail picks the zero-or-one email a committed transition
// produces. Check-ins only notify for organizer-added access guests;
// rejections only notify when a reason was given.
func dispatchTransitionMail(d *gorm.DB, visit *models.Visit, company *models.Company, target types.VisitStatus) {
	switch target {
	case types.VISIT_APPROVED:
		mailer.Dispatch(mailer.TemplateVisitorApproved, []string{visit.VisitorEmail}, mailer.Data{
			VisitorName: visit.VisitorName,
			CompanyName: company.Name,
		})
	case types.VISIT_REJECTED:
		if visit.RejectionReason == "" {
			return
		}
		mailer.Dispatch(mailer.TemplateVisitorRejected, []string{visit.VisitorEmail}, mailer.Data{
			VisitorName: visit.VisitorName,
			CompanyName: company.Name,
			Reason:      visit.RejectionReason,
		})
	case types.VISIT_CHECKED_IN:
		if visit.AccessID == nil || visit.Origin == types.ORIGIN_SELF_REGISTER {
			return
		}
		var access models.Access
		if err := d.Preload("Creator").Where(&models.Access{ID: *visit.AccessID}).First(&access).Error; err != nil {
			log.Printf("Error retrieving Access [%d] for check-in notification: %s\n", *visit.AccessID, err.Error())
			return
		}
		if access.Creator == nil {
			return
		}
		mailer.Dispatch(mailer.TemplateGuestCheckedIn, []string{access.Creator.Email}, mailer.Data{
			HostName:    access.Creator.Name,
			VisitorName: visit.VisitorName,
			AccessName:  access.Name,
		})
	}
}

func visitFromBody(body *types.CreateVisitRequestBody, companyId uint) (*models.Visit, error) {
	scheduled, err := time.Parse(config.TIME_PARSE_FORMAT, body.ScheduledDate)
	if err != nil {
		return nil, err
	}
	visitType := types.VISIT_SPONTANEOUS
	if body.VisitType != "" {
		visitType = types.VisitType(body.VisitType)
	}
	return &models.Visit{
		VisitorName:    body.VisitorName,
		VisitorCompany: body.VisitorCompany,
		VisitorEmail:   body.VisitorEmail,
		VisitorPhone:   body.VisitorPhone,
		VisitorDoc:     body.VisitorDoc,
		PhotoURL:       body.PhotoURL,
		HostID:         body.HostID,
		CompanyID:      companyId,
		VisitType:      visitType,
		AccessCode:     body.AccessCode,
		Notes:          body.Notes,
		ScheduledDate:  &scheduled,
		Origin:         types.ORIGIN_STAFF,
	}, nil
}

// createStaffVisit backs both POST /visits and POST /visits/force-register;
// only the blacklist gate differs between the two.
func createStaffVisit(ctx *gin.Context, force bool) {
	var body types.CreateVisitRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		log.Printf("Error validating request: %s\n", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	companyId := ctx.GetUint("company")
	visit, err := visitFromBody(&body, companyId)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.VisitType == string(types.VISIT_ACCESS_CODE) && body.AccessCode != "" {
		d := db.GetDb()
		var access models.Access
		if err := d.Where(&models.Access{Code: body.AccessCode, CompanyID: companyId}).First(&access).Error; err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"message": "El código de acceso no es válido"})
			return
		}
		visit.AccessID = &access.ID
	}

	var host models.User
	var company models.Company
	var approval *models.Approval
	var hit *models.BlacklistEntry
	d := db.GetDb()
	err = d.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&models.Company{ID: companyId}).First(&company).Error; err != nil {
			return err
		}
		if err := tx.Where(&models.User{ID: body.HostID, CompanyID: companyId}).First(&host).Error; err != nil {
			return errors.New("host not found")
		}
		entry, err := common.FindActiveEntry(tx, companyId, visit.VisitorEmail, visit.VisitorDoc)
		if err != nil {
			return err
		}
		if entry != nil {
			if !force {
				hit = entry
				return nil
			}
			if visit.Notes != "" {
				visit.Notes += "\n"
			}
			visit.Notes += common.BlacklistOverrideNote
		}
		approval, err = finalizeVisitCreation(tx, visit, &company)
		return err
	})
	if err != nil {
		log.Printf("Error creating Visit: %s\n", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if hit != nil {
		// Warning, not an error: the staff client decides whether to
		// force-register.
		ctx.JSON(http.StatusOK, gin.H{
			"warning": true,
			"message": "El visitante se encuentra en la lista negra",
			"entry":   hit,
		})
		return
	}
	notifyVisitCreated(visit, &host, &company, approval)
	ctx.JSON(http.StatusCreated, gin.H{"data": visit})
}

func visitHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	staff := middlewares.RequireRoles(types.ROLE_RECEPTION)
	g.
		GET("/visits", func(ctx *gin.Context) {
			var query types.VisitsQueryFilters
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			d := db.GetDb()
			q := d.Model(&models.Visit{}).Where("company_id = ?", companyId)
			if ctx.GetString("role") == types.ROLE_HOST {
				q = q.Where("host_id = ?", ctx.GetUint("id"))
			} else if query.Host > 0 {
				q = q.Where("host_id = ?", query.Host)
			}
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			if query.Date != "" {
				day, err := time.Parse("2006-01-02", query.Date)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				q = q.Where("scheduled_date BETWEEN ? AND ?", day, day.Add(24*time.Hour))
			}
			var visits []models.Visit
			if err := q.Preload("Host").Order("scheduled_date desc").Find(&visits).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": visits, "count": len(visits)})
		}).
		GET("/visits/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			var visit models.Visit
			d := db.GetDb()
			if err := d.
				Where(&models.Visit{ID: params.ID, CompanyID: companyId}).
				Preload("Host").
				Preload("Events").
				First(&visit).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ctx.GetString("role") == types.ROLE_HOST && visit.HostID != ctx.GetUint("id") {
				ctx.Status(http.StatusForbidden)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": visit})
		}).
		POST("/visits", staff, func(ctx *gin.Context) {
			createStaffVisit(ctx, false)
		}).
		POST("/visits/force-register", staff, func(ctx *gin.Context) {
			createStaffVisit(ctx, true)
		}).
		PUT("/visits/:id", staff, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateVisitRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			updates := map[string]any{}
			if body.VisitorName != "" {
				updates["visitor_name"] = body.VisitorName
			}
			if body.VisitorCompany != "" {
				updates["visitor_company"] = body.VisitorCompany
			}
			if body.VisitorPhone != "" {
				updates["visitor_phone"] = body.VisitorPhone
			}
			if body.Notes != "" {
				updates["notes"] = body.Notes
			}
			if body.RejectionReason != "" {
				// Late reason for a two-step rejection; no retroactive
				// email is sent.
				updates["rejection_reason"] = body.RejectionReason
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"message": "No hay campos para actualizar"})
				return
			}
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				var visit models.Visit
				if err := tx.Where(&models.Visit{ID: params.ID, CompanyID: companyId}).First(&visit).Error; err != nil {
					return err
				}
				return tx.Model(&models.Visit{}).Where("id = ?", visit.ID).Updates(updates).Error
			}); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		PUT("/visits/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateVisitStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			target := types.VisitStatus(body.Status)
			var visit models.Visit
			var company models.Company
			d := db.GetDb()
			if err := d.Where(&models.Visit{ID: params.ID, CompanyID: companyId}).First(&visit).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if ctx.GetString("role") == types.ROLE_HOST && visit.HostID != ctx.GetUint("id") {
				ctx.Status(http.StatusForbidden)
				return
			}
			err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.Where(&models.Visit{ID: params.ID, CompanyID: companyId}).First(&visit).Error; err != nil {
					return err
				}
				if err := tx.Where(&models.Company{ID: companyId}).First(&company).Error; err != nil {
					return err
				}
				events, err := common.ApplyTransition(&visit, target, common.TransitionOpts{
					Company: &company,
					Reason:  body.Reason,
				})
				if err != nil {
					return err
				}
				if err := tx.Save(&visit).Error; err != nil {
					return err
				}
				for _, et := range events {
					ev := models.VisitEvent{VisitID: visit.ID, Type: et, By: ctx.GetUint("id")}
					if err := tx.Create(&ev).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				var te *common.TransitionError
				if errors.As(err, &te) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": te.Error()})
					return
				}
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dispatchTransitionMail(d, &visit, &company, target)
			ctx.JSON(http.StatusOK, gin.H{"data": visit})
		}).
		DELETE("/visits/:id", middlewares.RequireRoles(), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			d := db.GetDb()
			if err := d.Transaction(func(tx *gorm.DB) error {
				var visit models.Visit
				if err := tx.Where(&models.Visit{ID: params.ID, CompanyID: companyId}).First(&visit).Error; err != nil {
					return err
				}
				return tx.Unscoped().Delete(&visit).Error
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
		POST("/visits/scan-qr", staff, func(ctx *gin.Context) {
			var body types.ScanQRRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			companyId := ctx.GetUint("company")
			var visit models.Visit
			var company models.Company
			var target types.VisitStatus
			d := db.GetDb()
			err := d.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where("qr_token = ? AND company_id = ?", body.Code, companyId).
					First(&visit).
					Error; err != nil {
					return errors.New("invalid or expired QR code")
				}
				if err := tx.Where(&models.Company{ID: companyId}).First(&company).Error; err != nil {
					return err
				}
				switch visit.Status {
				case types.VISIT_APPROVED:
					target = types.VISIT_CHECKED_IN
				case types.VISIT_CHECKED_IN:
					target = types.VISIT_COMPLETED
				default:
					return &common.TransitionError{From: visit.Status, To: types.VISIT_CHECKED_IN}
				}
				events, err := common.ApplyTransition(&visit, target, common.TransitionOpts{
					Company: &company,
					ViaQR:   true,
				})
				if err != nil {
					return err
				}
				if err := tx.Save(&visit).Error; err != nil {
					return err
				}
				for _, et := range events {
					ev := models.VisitEvent{VisitID: visit.ID, Type: et, By: ctx.GetUint("id")}
					if err := tx.Create(&ev).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Printf("Error on QR scan: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dispatchTransitionMail(d, &visit, &company, target)
			ctx.JSON(http.StatusOK, gin.H{"data": visit})
		})
	return g
}

// publicVisitRoutes serves self-registration; no auth, companies addressed
// by slug.
func publicVisitRoutes(g *gin.RouterGroup) *gin.RouterGroup {
	g.POST("/visits/register", func(ctx *gin.Context) {
		var body types.PublicRegisterRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			log.Printf("Error validating request: %s\n", err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		scheduled, err := time.Parse(config.TIME_PARSE_FORMAT, body.ScheduledDate)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var company models.Company
		var host models.User
		var approval *models.Approval
		visit := models.Visit{
			VisitorName:    body.VisitorName,
			VisitorCompany: body.VisitorCompany,
			VisitorEmail:   body.VisitorEmail,
			VisitorPhone:   body.VisitorPhone,
			VisitorDoc:     body.VisitorDoc,
			PhotoURL:       body.PhotoURL,
			HostID:         body.HostID,
			ScheduledDate:  &scheduled,
			Origin:         types.ORIGIN_SELF_REGISTER,
		}
		blocked := false
		d := db.GetDb()
		err = d.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where(&models.Company{Slug: body.CompanySlug}).First(&company).Error; err != nil {
				return errors.New("company not found")
			}
			if !company.EnableSelfRegister {
				return errors.New("self registration is disabled for this company")
			}
			if company.RequirePhoto && body.PhotoURL == "" {
				return errors.New("a photo is required to register")
			}
			if err := tx.Where(&models.User{ID: body.HostID, CompanyID: company.ID}).First(&host).Error; err != nil {
				return errors.New("host not found")
			}
			entry, err := common.FindActiveEntry(tx, company.ID, body.VisitorEmail, body.VisitorDoc)
			if err != nil {
				return err
			}
			if entry != nil {
				blocked = true
				return nil
			}
			visit.CompanyID = company.ID
			approval, err = finalizeVisitCreation(tx, &visit, &company)
			return err
		})
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if blocked {
			// Hard block, unlike the staff endpoint's warning.
			ctx.JSON(http.StatusForbidden, gin.H{"message": "No es posible registrar esta visita"})
			return
		}
		notifyVisitCreated(&visit, &host, &company, approval)
		ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{
			"id":     visit.ID,
			"status": visit.Status,
		}})
	})
	return g
}
