package services

import (
	"testing"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeJobRepo struct {
	db.JobRepository
	jobs       map[uint]*models.JobPost
	apps       map[uint]*models.JobApplication
	nextJobID  uint
	nextAppID  uint
	lastFilter models.JobFilter
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		jobs:      make(map[uint]*models.JobPost),
		apps:      make(map[uint]*models.JobApplication),
		nextJobID: 1,
		nextAppID: 1,
	}
}

func (f *fakeJobRepo) CreateJobPost(job *models.JobPost) error {
	job.ID = f.nextJobID
	f.nextJobID++
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) FindJobByID(id uint) (*models.JobPost, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) UpdateJobPost(job *models.JobPost) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) ListJobs(filter models.JobFilter) ([]models.JobPost, int64, error) {
	f.lastFilter = filter
	var jobs []models.JobPost
	for _, job := range f.jobs {
		jobs = append(jobs, *job)
	}
	return jobs, int64(len(jobs)), nil
}

func (f *fakeJobRepo) CreateApplication(app *models.JobApplication) error {
	for _, existing := range f.apps {
		if existing.JobPostID == app.JobPostID && existing.ApplicantID == app.ApplicantID {
			return &duplicateError{`duplicate key value violates unique constraint "idx_job_applications_applicant"`}
		}
	}
	app.ID = f.nextAppID
	f.nextAppID++
	f.apps[app.ID] = app
	return nil
}

func (f *fakeJobRepo) FindApplicationByID(id uint) (*models.JobApplication, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return app, nil
}

func (f *fakeJobRepo) UpdateApplicationStatus(id uint, status models.ApplicationStatus) error {
	app, ok := f.apps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	app.Status = status
	return nil
}

func newJobServiceForTest() (JobService, *fakeJobRepo, *fakeCompanyRepo, uuid.UUID) {
	jobRepo := newFakeJobRepo()
	companyRepo := newFakeCompanyRepo()
	companyID := uuid.New()
	companyRepo.companies[companyID] = &models.ProductionCompany{ID: companyID, Name: "Test Films", Slug: "test-films"}
	companyRepo.members[companyID] = map[uint]*models.CompanyMember{
		1: {CompanyID: companyID, UserID: 1, Role: models.MemberOwner},
	}
	svc := NewJobService(jobRepo, companyRepo, &config.Config{})
	return svc, jobRepo, companyRepo, companyID
}

func TestCreateJobRequiresManager(t *testing.T) {
	svc, _, companyRepo, companyID := newJobServiceForTest()
	companyRepo.members[companyID][3] = &models.CompanyMember{CompanyID: companyID, UserID: 3, Role: models.MemberRegular}

	req := &models.CreateJobRequest{Title: "Gaffer", Department: "Lighting"}

	_, apiErr := svc.CreateJob(3, companyID, req)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	_, apiErr = svc.CreateJob(9, companyID, req)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	job, apiErr := svc.CreateJob(1, companyID, req)
	require.Nil(t, apiErr)
	assert.Equal(t, models.JobOpen, job.Status)
	assert.Equal(t, uint(1), job.PostedBy)
}

func TestCreateJobChecksProductionCompany(t *testing.T) {
	svc, _, companyRepo, companyID := newJobServiceForTest()

	otherID := uuid.New()
	companyRepo.productions = map[uint]*models.Production{
		7: {Model: models.Model{ID: 7}, CompanyID: otherID, Title: "Elsewhere"},
	}

	prodID := uint(7)
	_, apiErr := svc.CreateJob(1, companyID, &models.CreateJobRequest{Title: "Grip", Department: "Grip", ProductionID: &prodID})
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "production belongs to another company", apiErr.Message)
}

func TestListJobsNormalizesPagination(t *testing.T) {
	svc, jobRepo, _, _ := newJobServiceForTest()

	resp, apiErr := svc.ListJobs(models.JobFilter{Page: -3, PerPage: 5000})
	require.Nil(t, apiErr)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PerPage)
	assert.Equal(t, 1, jobRepo.lastFilter.Page)
	assert.Equal(t, 20, jobRepo.lastFilter.PerPage)
}

func TestApply(t *testing.T) {
	svc, _, _, companyID := newJobServiceForTest()
	job, apiErr := svc.CreateJob(1, companyID, &models.CreateJobRequest{Title: "Gaffer", Department: "Lighting"})
	require.Nil(t, apiErr)

	app, apiErr := svc.Apply(9, job.ID, &models.ApplyRequest{Note: "Ten features."})
	require.Nil(t, apiErr)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)

	_, apiErr = svc.Apply(9, job.ID, &models.ApplyRequest{})
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "application already submitted", apiErr.Message)
}

func TestApplyRejectsClosedJobAndOwnCompany(t *testing.T) {
	svc, jobRepo, companyRepo, companyID := newJobServiceForTest()
	job, apiErr := svc.CreateJob(1, companyID, &models.CreateJobRequest{Title: "Gaffer", Department: "Lighting"})
	require.Nil(t, apiErr)

	// Members of the posting company cannot apply, whatever their role.
	companyRepo.members[companyID][4] = &models.CompanyMember{CompanyID: companyID, UserID: 4, Role: models.MemberRegular}
	_, apiErr = svc.Apply(4, job.ID, &models.ApplyRequest{})
	require.NotNil(t, apiErr)
	assert.Equal(t, 400, apiErr.Status)

	jobRepo.jobs[job.ID].Status = models.JobClosed
	_, apiErr = svc.Apply(9, job.ID, &models.ApplyRequest{})
	require.NotNil(t, apiErr)
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, "job is closed", apiErr.Message)
}

func TestUpdateApplicationStatus(t *testing.T) {
	svc, jobRepo, _, companyID := newJobServiceForTest()
	job, apiErr := svc.CreateJob(1, companyID, &models.CreateJobRequest{Title: "Gaffer", Department: "Lighting"})
	require.Nil(t, apiErr)
	app, apiErr := svc.Apply(9, job.ID, &models.ApplyRequest{})
	require.Nil(t, apiErr)

	// The applicant cannot move their own application.
	apiErr = svc.UpdateApplicationStatus(9, app.ID, models.ApplicationShortlisted)
	require.NotNil(t, apiErr)
	assert.Equal(t, 403, apiErr.Status)

	apiErr = svc.UpdateApplicationStatus(1, app.ID, models.ApplicationShortlisted)
	require.Nil(t, apiErr)
	assert.Equal(t, models.ApplicationShortlisted, jobRepo.apps[app.ID].Status)
}
