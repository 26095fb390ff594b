package services

import (
	"strings"
	"testing"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeCompanyRepo struct {
	db.CompanyRepository
	companies   map[uuid.UUID]*models.ProductionCompany
	members     map[uuid.UUID]map[uint]*models.CompanyMember
	invitations map[uint]*models.CompanyInvitation
	productions map[uint]*models.Production
	nextInvID   uint
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{
		companies:   make(map[uuid.UUID]*models.ProductionCompany),
		members:     make(map[uuid.UUID]map[uint]*models.CompanyMember),
		invitations: make(map[uint]*models.CompanyInvitation),
		nextInvID:   1,
	}
}

func (f *fakeCompanyRepo) CreateCompanyWithOwner(company *models.ProductionCompany, ownerID uint) error {
	for _, existing := range f.companies {
		if existing.Slug == company.Slug {
			return &duplicateError{`duplicate key value violates unique constraint "idx_production_companies_slug"`}
		}
	}
	f.companies[company.ID] = company
	f.members[company.ID] = map[uint]*models.CompanyMember{
		ownerID: {CompanyID: company.ID, UserID: ownerID, Role: models.MemberOwner},
	}
	return nil
}

func (f *fakeCompanyRepo) FindProductionByID(id uint) (*models.Production, error) {
	production, ok := f.productions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return production, nil
}

func (f *fakeCompanyRepo) FindCompanyByID(id uuid.UUID) (*models.ProductionCompany, error) {
	company, ok := f.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return company, nil
}

func (f *fakeCompanyRepo) IsSlugTaken(slug string) (bool, error) {
	for _, company := range f.companies {
		if company.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompanyRepo) FindMember(companyID uuid.UUID, userID uint) (*models.CompanyMember, error) {
	member, ok := f.members[companyID][userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (f *fakeCompanyRepo) RemoveMember(companyID uuid.UUID, userID uint) error {
	delete(f.members[companyID], userID)
	return nil
}

func (f *fakeCompanyRepo) TransferOwnership(companyID uuid.UUID, fromUserID, toUserID uint) error {
	target, ok := f.members[companyID][toUserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.members[companyID][fromUserID].Role = models.MemberAdmin
	target.Role = models.MemberOwner
	return nil
}

func (f *fakeCompanyRepo) CreateInvitation(inv *models.CompanyInvitation) error {
	for _, existing := range f.invitations {
		if existing.CompanyID == inv.CompanyID && existing.Email == inv.Email && existing.Status == models.InvitationPending {
			return &duplicateError{`duplicate key value violates unique constraint "idx_company_invitations_pending"`}
		}
	}
	inv.ID = f.nextInvID
	f.nextInvID++
	f.invitations[inv.ID] = inv
	return nil
}

func (f *fakeCompanyRepo) FindInvitationByID(id uint) (*models.CompanyInvitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (f *fakeCompanyRepo) AcceptInvitation(inv *models.CompanyInvitation, userID uint) error {
	inv.Status = models.InvitationAccepted
	f.members[inv.CompanyID][userID] = &models.CompanyMember{
		CompanyID: inv.CompanyID,
		UserID:    userID,
		Role:      inv.Role,
	}
	return nil
}

func (f *fakeCompanyRepo) UpdateInvitationStatus(id uint, status models.InvitationStatus) error {
	inv, ok := f.invitations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	inv.Status = status
	return nil
}

type duplicateError struct{ msg string }

func (e *duplicateError) Error() string { return e.msg }

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendMagicLink(email, link string) (string, error) {
	f.sent = append(f.sent, "magic:"+email)
	return "", nil
}

func (f *fakeMailer) SendCompanyInvite(email, companyName, link string) (string, error) {
	f.sent = append(f.sent, "invite:"+email)
	return "", nil
}

func newCompanyServiceForTest() (CompanyService, *fakeCompanyRepo, *fakeMailer) {
	repo := newFakeCompanyRepo()
	mail := &fakeMailer{}
	svc := NewCompanyService(repo, mail, nil, &config.Config{AppUrl: "https://app.example.com"})
	return svc, repo, mail
}

func TestCreateCompanyDerivesSlug(t *testing.T) {
	svc, _, _ := newCompanyServiceForTest()

	company, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "My Film Co!!"})
	require.Nil(t, apiErr)
	assert.Equal(t, "my-film-co", company.Slug)

	role, apiErr := svc.MemberRole(company.ID, 1)
	require.Nil(t, apiErr)
	assert.Equal(t, models.MemberOwner, role)
}

func TestCreateCompanyDuplicateSlugConflicts(t *testing.T) {
	svc, _, _ := newCompanyServiceForTest()

	_, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "My Film Co"})
	require.Nil(t, apiErr)

	_, apiErr = svc.CreateCompany(2, &models.CreateCompanyRequest{Name: "My! Film! Co!"})
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "slug already taken", apiErr.Message)
}

func TestCheckSlug(t *testing.T) {
	svc, _, _ := newCompanyServiceForTest()

	_, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "Taken Films"})
	require.Nil(t, apiErr)

	check, apiErr := svc.CheckSlug("taken-films")
	require.Nil(t, apiErr)
	assert.False(t, check.Available)

	check, apiErr = svc.CheckSlug("free-films")
	require.Nil(t, apiErr)
	assert.True(t, check.Available)

	_, apiErr = svc.CheckSlug("Not A Slug")
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestInviteMemberDuplicatePendingConflicts(t *testing.T) {
	svc, _, mail := newCompanyServiceForTest()

	company, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "Invite Films"})
	require.Nil(t, apiErr)

	inv, apiErr := svc.InviteMember(1, company.ID, &models.InviteMemberRequest{Email: "Gaffer@Example.com", Role: models.MemberRegular})
	require.Nil(t, apiErr)
	assert.Equal(t, "gaffer@example.com", inv.Email)
	require.Len(t, mail.sent, 1)
	assert.True(t, strings.HasPrefix(mail.sent[0], "invite:"))

	_, apiErr = svc.InviteMember(1, company.ID, &models.InviteMemberRequest{Email: "gaffer@example.com", Role: models.MemberRegular})
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "invitation already pending", apiErr.Message)
}

func TestInvitationAcceptFlow(t *testing.T) {
	svc, _, _ := newCompanyServiceForTest()

	company, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "Accept Films"})
	require.Nil(t, apiErr)
	inv, apiErr := svc.InviteMember(1, company.ID, &models.InviteMemberRequest{Email: "grip@example.com", Role: models.MemberRegular})
	require.Nil(t, apiErr)

	// Only the invitee may answer.
	apiErr = svc.RespondToInvitation(5, "someone-else@example.com", inv.ID, models.InvitationAccepted)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	apiErr = svc.RespondToInvitation(5, "grip@example.com", inv.ID, models.InvitationAccepted)
	require.Nil(t, apiErr)

	role, apiErr := svc.MemberRole(company.ID, 5)
	require.Nil(t, apiErr)
	assert.Equal(t, models.MemberRegular, role)

	// Answered invitations no longer move.
	apiErr = svc.RespondToInvitation(5, "grip@example.com", inv.ID, models.InvitationDeclined)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
}

func TestTransferOwnership(t *testing.T) {
	svc, repo, _ := newCompanyServiceForTest()

	company, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "Transfer Films"})
	require.Nil(t, apiErr)
	repo.members[company.ID][2] = &models.CompanyMember{CompanyID: company.ID, UserID: 2, Role: models.MemberRegular}

	// Non-owners cannot transfer.
	apiErr = svc.TransferOwnership(2, company.ID, 1)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	apiErr = svc.TransferOwnership(1, company.ID, 2)
	require.Nil(t, apiErr)

	role, apiErr := svc.MemberRole(company.ID, 2)
	require.Nil(t, apiErr)
	assert.Equal(t, models.MemberOwner, role)

	role, apiErr = svc.MemberRole(company.ID, 1)
	require.Nil(t, apiErr)
	assert.Equal(t, models.MemberAdmin, role)
}

func TestRemoveMemberGates(t *testing.T) {
	svc, repo, _ := newCompanyServiceForTest()

	company, apiErr := svc.CreateCompany(1, &models.CreateCompanyRequest{Name: "Remove Films"})
	require.Nil(t, apiErr)
	repo.members[company.ID][2] = &models.CompanyMember{CompanyID: company.ID, UserID: 2, Role: models.MemberAdmin}
	repo.members[company.ID][3] = &models.CompanyMember{CompanyID: company.ID, UserID: 3, Role: models.MemberRegular}

	// The owner is never removable.
	apiErr = svc.RemoveMember(2, company.ID, 1)
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// Admins cannot remove admins.
	repo.members[company.ID][4] = &models.CompanyMember{CompanyID: company.ID, UserID: 4, Role: models.MemberAdmin}
	apiErr = svc.RemoveMember(2, company.ID, 4)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	// Regular members cannot remove anyone.
	apiErr = svc.RemoveMember(3, company.ID, 4)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	apiErr = svc.RemoveMember(2, company.ID, 3)
	assert.Nil(t, apiErr)
}
