package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/filmcrewhq/filmcrew/queue"
	"github.com/filmcrewhq/filmcrew/services/utils"
	"github.com/google/uuid"
)

// CompanyService owns production companies: profile, membership, invitations
// and the productions a company runs.
type CompanyService interface {
	CreateCompany(ownerID uint, request *models.CreateCompanyRequest) (*models.ProductionCompany, *apiError.Error)
	GetCompany(id uuid.UUID) (*models.ProductionCompany, *apiError.Error)
	GetCompanyBySlug(slug string) (*models.ProductionCompany, *apiError.Error)
	UpdateCompany(actorID uint, companyID uuid.UUID, request *models.UpdateCompanyRequest) (*models.ProductionCompany, *apiError.Error)
	CheckSlug(slug string) (*models.SlugCheckResponse, *apiError.Error)
	ListCompaniesForUser(userID uint) ([]models.CompanyMember, *apiError.Error)
	ListMembers(actorID uint, companyID uuid.UUID) ([]models.CompanyMember, *apiError.Error)
	RemoveMember(actorID uint, companyID uuid.UUID, userID uint) *apiError.Error
	TransferOwnership(actorID uint, companyID uuid.UUID, newOwnerID uint) *apiError.Error
	InviteMember(actorID uint, companyID uuid.UUID, request *models.InviteMemberRequest) (*models.CompanyInvitation, *apiError.Error)
	ListInvitations(actorID uint, companyID uuid.UUID) ([]models.CompanyInvitation, *apiError.Error)
	ListMyInvitations(email string) ([]models.CompanyInvitation, *apiError.Error)
	RespondToInvitation(userID uint, email string, invitationID uint, status models.InvitationStatus) *apiError.Error
	CancelInvitation(actorID uint, invitationID uint) *apiError.Error
	CreateProduction(actorID uint, companyID uuid.UUID, request *models.CreateProductionRequest) (*models.Production, *apiError.Error)
	GetProduction(id uint) (*models.Production, *apiError.Error)
	ListProductions(companyID uuid.UUID) ([]models.Production, *apiError.Error)
	UpdateProduction(actorID uint, productionID uint, request *models.CreateProductionRequest) (*models.Production, *apiError.Error)
	MemberRole(companyID uuid.UUID, userID uint) (models.MemberRole, *apiError.Error)
}

type companyService struct {
	Config      *config.Config
	companyRepo db.CompanyRepository
	queue       *queue.Client
	mail        queue.Mailer
}

func NewCompanyService(companyRepo db.CompanyRepository, mail queue.Mailer, queueClient *queue.Client, conf *config.Config) CompanyService {
	return &companyService{
		Config:      conf,
		companyRepo: companyRepo,
		queue:       queueClient,
		mail:        mail,
	}
}

// CreateCompany registers a company with the caller as its owner. The slug is
// derived from the name when absent and must pass validation either way; a
// taken slug surfaces as a conflict.
func (s *companyService) CreateCompany(ownerID uint, request *models.CreateCompanyRequest) (*models.ProductionCompany, *apiError.Error) {
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	slug := request.Slug
	if slug == "" {
		slug = utils.Slugify(request.Name)
	}
	if !utils.IsValidSlug(slug) {
		return nil, apiError.New("invalid slug", http.StatusBadRequest)
	}

	company := &models.ProductionCompany{
		ID:       uuid.New(),
		Name:     request.Name,
		Slug:     slug,
		About:    request.About,
		Website:  request.Website,
		Location: request.Location,
	}
	if err := s.companyRepo.CreateCompanyWithOwner(company, ownerID); err != nil {
		if apiError.IsDuplicate(err) {
			return nil, apiError.New("slug already taken", http.StatusConflict)
		}
		return nil, apiError.ErrInternalServerError
	}
	return company, nil
}

func (s *companyService) GetCompany(id uuid.UUID) (*models.ProductionCompany, *apiError.Error) {
	company, err := s.companyRepo.FindCompanyByID(id)
	if err != nil {
		return nil, apiError.FromDB(err, "company not found")
	}
	return company, nil
}

func (s *companyService) GetCompanyBySlug(slug string) (*models.ProductionCompany, *apiError.Error) {
	company, err := s.companyRepo.FindCompanyBySlug(strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, apiError.FromDB(err, "company not found")
	}
	return company, nil
}

func (s *companyService) UpdateCompany(actorID uint, companyID uuid.UUID, request *models.UpdateCompanyRequest) (*models.ProductionCompany, *apiError.Error) {
	if apiErr := s.requireManager(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	company, err := s.companyRepo.FindCompanyByID(companyID)
	if err != nil {
		return nil, apiError.FromDB(err, "company not found")
	}

	if request.Name != "" {
		company.Name = request.Name
	}
	if request.About != "" {
		company.About = request.About
	}
	if request.Website != "" {
		company.Website = request.Website
	}
	if request.Location != "" {
		company.Location = request.Location
	}
	if err := s.companyRepo.UpdateCompany(company); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return company, nil
}

// CheckSlug reports availability of a slug before the client commits to it.
func (s *companyService) CheckSlug(slug string) (*models.SlugCheckResponse, *apiError.Error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !utils.IsValidSlug(slug) {
		return nil, apiError.New("invalid slug", http.StatusBadRequest)
	}
	taken, err := s.companyRepo.IsSlugTaken(slug)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return &models.SlugCheckResponse{Slug: slug, Available: !taken}, nil
}

func (s *companyService) ListCompaniesForUser(userID uint) ([]models.CompanyMember, *apiError.Error) {
	memberships, err := s.companyRepo.ListCompaniesForUser(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return memberships, nil
}

func (s *companyService) ListMembers(actorID uint, companyID uuid.UUID) ([]models.CompanyMember, *apiError.Error) {
	if _, apiErr := s.MemberRole(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	members, err := s.companyRepo.ListMembers(companyID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return members, nil
}

// RemoveMember drops a member from the company. Owners cannot be removed,
// only transferred away from; admins may only remove regular members.
func (s *companyService) RemoveMember(actorID uint, companyID uuid.UUID, userID uint) *apiError.Error {
	actorRole, apiErr := s.MemberRole(companyID, actorID)
	if apiErr != nil {
		return apiErr
	}
	if !actorRole.CanManage() {
		return apiError.ErrForbidden
	}

	target, err := s.companyRepo.FindMember(companyID, userID)
	if err != nil {
		return apiError.FromDB(err, "member not found")
	}
	if target.Role == models.MemberOwner {
		return apiError.New("cannot remove the owner", http.StatusConflict)
	}
	if target.Role == models.MemberAdmin && actorRole != models.MemberOwner {
		return apiError.ErrForbidden
	}

	if err := s.companyRepo.RemoveMember(companyID, userID); err != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

// TransferOwnership demotes the current owner to admin and promotes the
// target in one transaction; only the owner may initiate it.
func (s *companyService) TransferOwnership(actorID uint, companyID uuid.UUID, newOwnerID uint) *apiError.Error {
	actorRole, apiErr := s.MemberRole(companyID, actorID)
	if apiErr != nil {
		return apiErr
	}
	if actorRole != models.MemberOwner {
		return apiError.ErrForbidden
	}
	if newOwnerID == actorID {
		return apiError.New("already the owner", http.StatusBadRequest)
	}

	if err := s.companyRepo.TransferOwnership(companyID, actorID, newOwnerID); err != nil {
		return apiError.FromDB(err, "member not found")
	}
	return nil
}

// InviteMember creates a pending invitation and mails the invitee. The
// partial unique index turns a second pending invite for the same email into
// a conflict.
func (s *companyService) InviteMember(actorID uint, companyID uuid.UUID, request *models.InviteMemberRequest) (*models.CompanyInvitation, *apiError.Error) {
	if apiErr := s.requireManager(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	company, err := s.companyRepo.FindCompanyByID(companyID)
	if err != nil {
		return nil, apiError.FromDB(err, "company not found")
	}

	inv := &models.CompanyInvitation{
		CompanyID: companyID,
		Email:     strings.ToLower(request.Email),
		Role:      request.Role,
		Status:    models.InvitationPending,
		InvitedBy: actorID,
	}
	if err := s.companyRepo.CreateInvitation(inv); err != nil {
		if apiError.IsDuplicate(err) {
			return nil, apiError.New("invitation already pending", http.StatusConflict)
		}
		return nil, apiError.ErrInternalServerError
	}

	link := fmt.Sprintf("%s/invitations", s.Config.AppUrl)
	if s.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.queue.EnqueueEmail(ctx, queue.EmailPayload{
			To:          inv.Email,
			Kind:        queue.EmailKindCompanyInvite,
			Link:        link,
			CompanyName: company.Name,
		})
	} else if s.mail != nil {
		_, err = s.mail.SendCompanyInvite(inv.Email, company.Name, link)
	}
	if err != nil {
		// The invitation row stands; delivery is retried by the queue or the
		// invitee finds it in their inbox listing.
		log.Printf("company: deliver invite to %s: %v", inv.Email, err)
	}
	return inv, nil
}

func (s *companyService) ListInvitations(actorID uint, companyID uuid.UUID) ([]models.CompanyInvitation, *apiError.Error) {
	if apiErr := s.requireManager(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	invs, err := s.companyRepo.ListInvitationsForCompany(companyID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return invs, nil
}

func (s *companyService) ListMyInvitations(email string) ([]models.CompanyInvitation, *apiError.Error) {
	invs, err := s.companyRepo.ListInvitationsForEmail(strings.ToLower(email))
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return invs, nil
}

// RespondToInvitation lets the invitee accept or decline. Accepting flips the
// status and adds the member row in one transaction; a non-pending invitation
// no longer moves.
func (s *companyService) RespondToInvitation(userID uint, email string, invitationID uint, status models.InvitationStatus) *apiError.Error {
	inv, err := s.companyRepo.FindInvitationByID(invitationID)
	if err != nil {
		return apiError.FromDB(err, "invitation not found")
	}
	if !strings.EqualFold(inv.Email, email) {
		return apiError.ErrForbidden
	}
	if inv.Status != models.InvitationPending {
		return apiError.New("invitation no longer pending", http.StatusConflict)
	}

	switch status {
	case models.InvitationAccepted:
		if err := s.companyRepo.AcceptInvitation(inv, userID); err != nil {
			if apiError.IsDuplicate(err) {
				return apiError.New("already a member", http.StatusConflict)
			}
			return apiError.FromDB(err, "invitation not found")
		}
	case models.InvitationDeclined:
		if err := s.companyRepo.UpdateInvitationStatus(inv.ID, models.InvitationDeclined); err != nil {
			return apiError.FromDB(err, "invitation not found")
		}
	default:
		return apiError.ErrBadRequest
	}
	return nil
}

func (s *companyService) CancelInvitation(actorID uint, invitationID uint) *apiError.Error {
	inv, err := s.companyRepo.FindInvitationByID(invitationID)
	if err != nil {
		return apiError.FromDB(err, "invitation not found")
	}
	if apiErr := s.requireManager(inv.CompanyID, actorID); apiErr != nil {
		return apiErr
	}
	if inv.Status != models.InvitationPending {
		return apiError.New("invitation no longer pending", http.StatusConflict)
	}
	if err := s.companyRepo.UpdateInvitationStatus(inv.ID, models.InvitationCancelled); err != nil {
		return apiError.FromDB(err, "invitation not found")
	}
	return nil
}

func (s *companyService) CreateProduction(actorID uint, companyID uuid.UUID, request *models.CreateProductionRequest) (*models.Production, *apiError.Error) {
	if apiErr := s.requireManager(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	production := &models.Production{
		CompanyID: companyID,
		Title:     request.Title,
		Synopsis:  request.Synopsis,
		Status:    request.Status,
	}
	if production.Status == "" {
		production.Status = models.ProductionDevelopment
	}
	if err := s.companyRepo.CreateProduction(production); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return production, nil
}

func (s *companyService) GetProduction(id uint) (*models.Production, *apiError.Error) {
	production, err := s.companyRepo.FindProductionByID(id)
	if err != nil {
		return nil, apiError.FromDB(err, "production not found")
	}
	return production, nil
}

func (s *companyService) ListProductions(companyID uuid.UUID) ([]models.Production, *apiError.Error) {
	productions, err := s.companyRepo.ListProductions(companyID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return productions, nil
}

func (s *companyService) UpdateProduction(actorID uint, productionID uint, request *models.CreateProductionRequest) (*models.Production, *apiError.Error) {
	production, err := s.companyRepo.FindProductionByID(productionID)
	if err != nil {
		return nil, apiError.FromDB(err, "production not found")
	}
	if apiErr := s.requireManager(production.CompanyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	if request.Title != "" {
		production.Title = request.Title
	}
	if request.Synopsis != "" {
		production.Synopsis = request.Synopsis
	}
	if request.Status != "" {
		production.Status = request.Status
	}
	if err := s.companyRepo.UpdateProduction(production); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return production, nil
}

// MemberRole resolves the caller's role in the company; non-members get a
// 403 rather than a 404 so company existence is still discoverable.
func (s *companyService) MemberRole(companyID uuid.UUID, userID uint) (models.MemberRole, *apiError.Error) {
	member, err := s.companyRepo.FindMember(companyID, userID)
	if err != nil {
		if _, findErr := s.companyRepo.FindCompanyByID(companyID); findErr != nil {
			return "", apiError.FromDB(findErr, "company not found")
		}
		return "", apiError.ErrForbidden
	}
	return member.Role, nil
}

func (s *companyService) requireManager(companyID uuid.UUID, userID uint) *apiError.Error {
	role, apiErr := s.MemberRole(companyID, userID)
	if apiErr != nil {
		return apiErr
	}
	if !role.CanManage() {
		return apiError.ErrForbidden
	}
	return nil
}
