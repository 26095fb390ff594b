package db

import (
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	CreateCompanyWithOwner(company *models.ProductionCompany, ownerID uint) error
	FindCompanyByID(id uuid.UUID) (*models.ProductionCompany, error)
	FindCompanyBySlug(slug string) (*models.ProductionCompany, error)
	UpdateCompany(company *models.ProductionCompany) error
	IsSlugTaken(slug string) (bool, error)
	FindMember(companyID uuid.UUID, userID uint) (*models.CompanyMember, error)
	ListMembers(companyID uuid.UUID) ([]models.CompanyMember, error)
	RemoveMember(companyID uuid.UUID, userID uint) error
	TransferOwnership(companyID uuid.UUID, fromUserID, toUserID uint) error
	CreateInvitation(inv *models.CompanyInvitation) error
	FindInvitationByID(id uint) (*models.CompanyInvitation, error)
	ListInvitationsForCompany(companyID uuid.UUID) ([]models.CompanyInvitation, error)
	ListInvitationsForEmail(email string) ([]models.CompanyInvitation, error)
	AcceptInvitation(inv *models.CompanyInvitation, userID uint) error
	UpdateInvitationStatus(id uint, status models.InvitationStatus) error
	ListCompaniesForUser(userID uint) ([]models.CompanyMember, error)
	CreateProduction(p *models.Production) error
	FindProductionByID(id uint) (*models.Production, error)
	ListProductions(companyID uuid.UUID) ([]models.Production, error)
	UpdateProduction(p *models.Production) error
}

type companyRepo struct {
	DB *gorm.DB
}

func NewCompanyRepo(db *GormDB) CompanyRepository {
	return &companyRepo{db.DB}
}

// CreateCompanyWithOwner inserts the company and its owner membership in one
// transaction so a company can never exist without exactly one owner.
func (r *companyRepo) CreateCompanyWithOwner(company *models.ProductionCompany, ownerID uint) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		member := models.CompanyMember{
			CompanyID: company.ID,
			UserID:    ownerID,
			Role:      models.MemberOwner,
		}
		return tx.Create(&member).Error
	})
}

func (r *companyRepo) FindCompanyByID(id uuid.UUID) (*models.ProductionCompany, error) {
	company := &models.ProductionCompany{}
	err := r.DB.First(company, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepo) FindCompanyBySlug(slug string) (*models.ProductionCompany, error) {
	company := &models.ProductionCompany{}
	err := r.DB.Where("slug = ?", slug).First(company).Error
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (r *companyRepo) UpdateCompany(company *models.ProductionCompany) error {
	return r.DB.Save(company).Error
}

func (r *companyRepo) IsSlugTaken(slug string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.ProductionCompany{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "could not check slug")
	}
	return count > 0, nil
}

func (r *companyRepo) FindMember(companyID uuid.UUID, userID uint) (*models.CompanyMember, error) {
	member := &models.CompanyMember{}
	err := r.DB.Where("company_id = ? AND user_id = ?", companyID, userID).First(member).Error
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *companyRepo) ListMembers(companyID uuid.UUID) ([]models.CompanyMember, error) {
	var members []models.CompanyMember
	err := r.DB.Preload("User").Where("company_id = ?", companyID).Order("created_at ASC").Find(&members).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list members")
	}
	return members, nil
}

func (r *companyRepo) RemoveMember(companyID uuid.UUID, userID uint) error {
	result := r.DB.Where("company_id = ? AND user_id = ?", companyID, userID).Delete(&models.CompanyMember{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not remove member")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransferOwnership demotes the current owner to admin and promotes the target
// in one transaction, preserving the exactly-one-owner invariant.
func (r *companyRepo) TransferOwnership(companyID uuid.UUID, fromUserID, toUserID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var target models.CompanyMember
		if err := tx.Where("company_id = ? AND user_id = ?", companyID, toUserID).First(&target).Error; err != nil {
			return err
		}
		result := tx.Model(&models.CompanyMember{}).
			Where("company_id = ? AND user_id = ? AND role = ?", companyID, fromUserID, models.MemberOwner).
			Update("role", models.MemberAdmin)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.CompanyMember{}).
			Where("company_id = ? AND user_id = ?", companyID, toUserID).
			Update("role", models.MemberOwner).Error
	})
}

func (r *companyRepo) CreateInvitation(inv *models.CompanyInvitation) error {
	return r.DB.Create(inv).Error
}

func (r *companyRepo) FindInvitationByID(id uint) (*models.CompanyInvitation, error) {
	inv := &models.CompanyInvitation{}
	err := r.DB.Preload("Company").First(inv, id).Error
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *companyRepo) ListInvitationsForCompany(companyID uuid.UUID) ([]models.CompanyInvitation, error) {
	var invs []models.CompanyInvitation
	err := r.DB.Where("company_id = ?", companyID).Order("created_at DESC").Find(&invs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list invitations")
	}
	return invs, nil
}

func (r *companyRepo) ListInvitationsForEmail(email string) ([]models.CompanyInvitation, error) {
	var invs []models.CompanyInvitation
	err := r.DB.Preload("Company").
		Where("email = ? AND status = ?", email, models.InvitationPending).
		Order("created_at DESC").Find(&invs).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list invitations")
	}
	return invs, nil
}

// AcceptInvitation flips the status and adds the member in the same
// transaction.
func (r *companyRepo) AcceptInvitation(inv *models.CompanyInvitation, userID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CompanyInvitation{}).
			Where("id = ? AND status = ?", inv.ID, models.InvitationPending).
			Update("status", models.InvitationAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		member := models.CompanyMember{
			CompanyID: inv.CompanyID,
			UserID:    userID,
			Role:      inv.Role,
		}
		return tx.Create(&member).Error
	})
}

func (r *companyRepo) UpdateInvitationStatus(id uint, status models.InvitationStatus) error {
	result := r.DB.Model(&models.CompanyInvitation{}).
		Where("id = ? AND status = ?", id, models.InvitationPending).
		Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update invitation")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *companyRepo) ListCompaniesForUser(userID uint) ([]models.CompanyMember, error) {
	var memberships []models.CompanyMember
	err := r.DB.Where("user_id = ?", userID).Find(&memberships).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list memberships")
	}
	return memberships, nil
}

func (r *companyRepo) CreateProduction(p *models.Production) error {
	return r.DB.Create(p).Error
}

func (r *companyRepo) FindProductionByID(id uint) (*models.Production, error) {
	p := &models.Production{}
	if err := r.DB.First(p, id).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *companyRepo) ListProductions(companyID uuid.UUID) ([]models.Production, error) {
	var productions []models.Production
	err := r.DB.Where("company_id = ?", companyID).Order("created_at DESC").Find(&productions).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list productions")
	}
	return productions, nil
}

func (r *companyRepo) UpdateProduction(p *models.Production) error {
	return r.DB.Save(p).Error
}
