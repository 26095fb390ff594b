package models

import (
	"time"

	"github.com/google/uuid"
)

type ProductionCompany struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name" conform:"trim"`
	Slug      string          `gorm:"uniqueIndex:idx_production_companies_slug;not null" json:"slug"`
	About     string          `json:"about" conform:"trim"`
	Website   string          `json:"website" conform:"trim"`
	Location  string          `json:"location" conform:"trim"`
	LogoURL   string          `json:"logo_url,omitempty"`
	Members   []CompanyMember `gorm:"foreignKey:CompanyID" json:"members,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MemberRole gates company mutations. Exactly one owner exists per company;
// ownership moves only through the transfer operation.
type MemberRole string

const (
	MemberOwner   MemberRole = "owner"
	MemberAdmin   MemberRole = "admin"
	MemberRegular MemberRole = "member"
)

func (r MemberRole) CanManage() bool {
	return r == MemberOwner || r == MemberAdmin
}

type CompanyMember struct {
	Model
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_company_members_user" json:"company_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_company_members_user" json:"user_id"`
	Role      MemberRole `gorm:"type:varchar(16);not null" json:"role"`
	User      User       `gorm:"foreignKey:UserID" json:"user"`
}

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
)

// CompanyInvitation invites an email address into a company. A partial unique
// index keeps at most one pending invitation per (company, email).
type CompanyInvitation struct {
	Model
	CompanyID uuid.UUID         `gorm:"type:uuid;not null" json:"company_id"`
	Company   ProductionCompany `gorm:"foreignKey:CompanyID" json:"company"`
	Email     string            `gorm:"not null" json:"email" conform:"trim,lower"`
	Role      MemberRole        `gorm:"type:varchar(16);not null" json:"role"`
	Status    InvitationStatus  `gorm:"type:varchar(16);default:'pending'" json:"status"`
	InvitedBy uint              `json:"invited_by"`
}

type CreateCompanyRequest struct {
	Name     string `json:"name" binding:"required,min=2" conform:"trim"`
	Slug     string `json:"slug" conform:"trim,lower"`
	About    string `json:"about" conform:"trim"`
	Website  string `json:"website" conform:"trim"`
	Location string `json:"location" conform:"trim"`
}

type UpdateCompanyRequest struct {
	Name     string `json:"name" conform:"trim"`
	About    string `json:"about" conform:"trim"`
	Website  string `json:"website" conform:"trim"`
	Location string `json:"location" conform:"trim"`
}

type InviteMemberRequest struct {
	Email string     `json:"email" binding:"required,email" conform:"trim,lower"`
	Role  MemberRole `json:"role" binding:"required,oneof=admin member"`
}

type InvitationRespondRequest struct {
	Status InvitationStatus `json:"status" binding:"required,oneof=accepted declined"`
}

type TransferOwnershipRequest struct {
	NewOwnerID uint `json:"new_owner_id" binding:"required"`
}

type SlugCheckResponse struct {
	Slug      string `json:"slug"`
	Available bool   `json:"available"`
}
