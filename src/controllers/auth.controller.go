package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"
	"vms/src/db"
	"vms/src/lib"
	"vms/src/models"
	"vms/src/types"
	"vms/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func AuthLogin(ctx *gin.Context) (token *string, user *models.User, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, nil, http.StatusBadRequest, err
	}
	if utils.IsProd() {
		if err := lib.VerifyCaptcha(body.CaptchaToken, ctx.ClientIP()); err != nil {
			log.Printf("Captcha check failed for [%s]: %s\n", body.Email, err.Error())
			return nil, nil, http.StatusUnauthorized, errors.New("captcha verification failed")
		}
	}

	db := db.GetDb()
	var muser models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&muser).
		Error; err != nil {
		log.Printf("error retrieving user [%s]: %s\n", body.Email, err.Error())
		return nil, nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}
	if !utils.CheckPassword(muser.PasswordHash, body.Password) {
		return nil, nil, http.StatusUnauthorized, errors.New("invalid credentials")
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", muser.ID).
			Update("last_active", time.Now()).
			Error
	}); err != nil {
		log.Printf("Error logging in user [%d]: %s\n", muser.ID, err.Error())
		return nil, nil, http.StatusBadRequest, err
	}

	jwt, err := utils.GenerateJWT(muser.Email, muser.ID, muser.CompanyID, muser.Role)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}
	return &jwt, &muser, http.StatusOK, nil
}

// AuthSignup onboards a new company together with its first admin user. The
// company slug doubles as the public self-register URL segment, so collisions
// are rejected instead of deduplicated.
func AuthSignup(ctx *gin.Context) (token *string, user *models.User, status int, err error) {
	var body types.CompanySignupRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, nil, http.StatusBadRequest, err
	}
	if utils.IsProd() {
		if err := lib.VerifyCaptcha(body.CaptchaToken, ctx.ClientIP()); err != nil {
			log.Printf("Captcha check failed for [%s]: %s\n", body.Email, err.Error())
			return nil, nil, http.StatusUnauthorized, errors.New("captcha verification failed")
		}
	}
	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}
	company := models.Company{
		Name: body.CompanyName,
		Slug: slug.Make(body.CompanyName),
	}
	muser := models.User{
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		PasswordHash: hash,
		Role:         types.ROLE_ADMIN,
	}
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Company{}).Where("slug = ?", company.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("a company with this name already exists")
		}
		if err := tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("a user with this email already exists")
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		muser.CompanyID = company.ID
		return tx.Create(&muser).Error
	}); err != nil {
		return nil, nil, http.StatusBadRequest, err
	}
	jwt, err := utils.GenerateJWT(muser.Email, muser.ID, muser.CompanyID, muser.Role)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}
	return &jwt, &muser, http.StatusCreated, nil
}

func AuthRegister(ctx *gin.Context) (id uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return 0, http.StatusBadRequest, err
	}
	companyId := ctx.GetUint("company")
	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		return 0, http.StatusInternalServerError, err
	}
	role := body.Role
	if role == "" {
		role = types.ROLE_HOST
	}
	user := models.User{
		Name:         body.Name,
		Email:        body.Email,
		Phone:        body.Phone,
		PasswordHash: hash,
		Role:         role,
		CompanyID:    companyId,
	}
	db := db.GetDb()
	if err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errors.New("a user with this email already exists")
		}
		return tx.Create(&user).Error
	}); err != nil {
		return 0, http.StatusBadRequest, err
	}
	return user.ID, http.StatusOK, nil
}

func AuthRefresh(ctx *gin.Context) (token *string, status int, err error) {
	userId := ctx.GetUint("id")
	db := db.GetDb()
	var user models.User
	if err := db.Where(&models.User{ID: userId}).First(&user).Error; err != nil {
		return nil, http.StatusUnauthorized, err
	}
	jwt, err := utils.GenerateJWT(user.Email, user.ID, user.CompanyID, user.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func AuthMe(ctx *gin.Context) (user *models.User, status int, err error) {
	userId := ctx.GetUint("id")
	db := db.GetDb()
	var muser models.User
	if err := db.
		Model(&models.User{}).
		Select("id", "name", "email", "phone", "role", "company_id", "last_active").
		Where(&models.User{ID: userId}).
		First(&muser).
		Error; err != nil {
		return nil, http.StatusNotFound, err
	}
	return &muser, http.StatusOK, nil
}
