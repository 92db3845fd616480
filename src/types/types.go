package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type VisitStatus string

const (
	VISIT_PENDING    VisitStatus = "pending"
	VISIT_APPROVED   VisitStatus = "approved"
	VISIT_CHECKED_IN VisitStatus = "checked-in"
	VISIT_COMPLETED  VisitStatus = "completed"
	VISIT_REJECTED   VisitStatus = "rejected"
	VISIT_CANCELLED  VisitStatus = "cancelled"
)

type VisitType string

const (
	VISIT_SPONTANEOUS VisitType = "spontaneous"
	VISIT_ACCESS_CODE VisitType = "access-code"
)

// VisitOrigin records which entry point created the visit. Access-originated
// visits skip auto check-in and the guest-checked-in notification depends on
// whether the guest pre-registered publicly.
type VisitOrigin string

const (
	ORIGIN_STAFF         VisitOrigin = "staff"
	ORIGIN_SELF_REGISTER VisitOrigin = "self-register"
	ORIGIN_ACCESS        VisitOrigin = "access"
)

type VisitEventType string

const (
	VISIT_EVENT_CHECK_IN     VisitEventType = "check-in"
	VISIT_EVENT_CHECK_OUT    VisitEventType = "check-out"
	VISIT_EVENT_CHECK_OUT_QR VisitEventType = "check-out-qr"
)

type IdentifierType string

const (
	IDENTIFIER_EMAIL    IdentifierType = "email"
	IDENTIFIER_DOCUMENT IdentifierType = "document"
	IDENTIFIER_PHONE    IdentifierType = "phone"
)

type AccessStatus string

const (
	ACCESS_ACTIVE    AccessStatus = "active"
	ACCESS_CANCELLED AccessStatus = "cancelled"
)

type ApprovalDecision string

const (
	APPROVAL_APPROVE ApprovalDecision = "approve"
	APPROVAL_REJECT  ApprovalDecision = "reject"
)

const (
	ROLE_ADMIN     = "admin"
	ROLE_RECEPTION = "reception"
	ROLE_HOST      = "host"
)

type LoginRequestBody struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captcha_token,omitempty"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty" binding:"omitempty,oneof=admin reception host"`
}

type CompanySignupRequestBody struct {
	CompanyName  string `json:"company_name" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Phone        string `json:"phone,omitempty"`
	CaptchaToken string `json:"captcha_token,omitempty"`
}

type VisitorFields struct {
	VisitorName    string `json:"visitor_name" binding:"required"`
	VisitorCompany string `json:"visitor_company,omitempty"`
	VisitorEmail   string `json:"visitor_email" binding:"required,email"`
	VisitorPhone   string `json:"visitor_phone,omitempty"`
	VisitorDoc     string `json:"visitor_document,omitempty"`
	PhotoURL       string `json:"photo_url,omitempty"`
}

type CreateVisitRequestBody struct {
	VisitorFields
	HostID        uint   `json:"host" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
	VisitType     string `json:"visit_type,omitempty" binding:"omitempty,oneof=spontaneous access-code"`
	AccessCode    string `json:"access_code,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type PublicRegisterRequestBody struct {
	VisitorFields
	CompanySlug   string `json:"company" binding:"required"`
	HostID        uint   `json:"host" binding:"required"`
	ScheduledDate string `json:"scheduled_date" binding:"required,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type UpdateVisitRequestBody struct {
	VisitorName     string `json:"visitor_name,omitempty"`
	VisitorCompany  string `json:"visitor_company,omitempty"`
	VisitorPhone    string `json:"visitor_phone,omitempty"`
	Notes           string `json:"notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type UpdateVisitStatusRequestBody struct {
	Status string `json:"status" binding:"required,oneof=approved rejected cancelled checked-in completed"`
	Reason string `json:"reason,omitempty"`
}

type ScanQRRequestBody struct {
	Code string `json:"code" binding:"required"`
}

// CreateBlacklistRequestBody accepts both the canonical identifier shape and
// the legacy email/document fields; ResolveBlacklistInput collapses them into
// one canonical form at the boundary.
type CreateBlacklistRequestBody struct {
	IdentifierType string `json:"identifier_type,omitempty" binding:"omitempty,oneof=email document phone"`
	Identifier     string `json:"identifier,omitempty"`
	Email          string `json:"email,omitempty"`
	Document       string `json:"document,omitempty"`
	Phone          string `json:"phone,omitempty"`
	VisitorName    string `json:"visitor_name" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

type BlacklistCheckQuery struct {
	Email    string `form:"email,omitempty"`
	Document string `form:"document,omitempty"`
	Phone    string `form:"phone,omitempty"`
}

type UpdateCompanyConfigRequestBody struct {
	Name               *string `json:"name,omitempty"`
	ContactEmail       *string `json:"contact_email,omitempty" binding:"omitempty,email"`
	AutoApproval       *bool   `json:"auto_approval,omitempty"`
	AutoCheckIn        *bool   `json:"auto_check_in,omitempty"`
	EnableSelfRegister *bool   `json:"enable_self_register,omitempty"`
	RequirePhoto       *bool   `json:"require_photo,omitempty"`
}

type CreateAccessRequestBody struct {
	Name     string   `json:"name" binding:"required"`
	Location string   `json:"location,omitempty"`
	StartsAt string   `json:"starts_at" binding:"required,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndsAt   string   `json:"ends_at" binding:"required,visitdate,gtdate=StartsAt" time_format:"2006-01-02 15:04:05 -07:00"`
	Guests   []string `json:"guests,omitempty" binding:"omitempty,dive,email"`
}

type UpdateAccessRequestBody struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	StartsAt *string `json:"starts_at,omitempty" binding:"omitempty,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndsAt   *string `json:"ends_at,omitempty" binding:"omitempty,visitdate" time_format:"2006-01-02 15:04:05 -07:00"`
}

type AddAccessGuestRequestBody struct {
	VisitorFields
}

type CreateInvitationRequestBody struct {
	AccessID uint   `json:"access" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type CompleteInvitationRequestBody struct {
	Token string `json:"token" binding:"required"`
	VisitorFields
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type TokenRequestParams struct {
	Token string `uri:"token" binding:"required"`
}

type VisitsQueryFilters struct {
	Status string `form:"status,omitempty" binding:"omitempty,oneof=pending approved checked-in completed rejected cancelled"`
	Host   uint   `form:"host,omitempty"`
	Date   string `form:"date,omitempty"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Company  uint   `json:"company"`
	jwt.RegisteredClaims
}
