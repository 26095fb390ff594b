package services

import (
	"net/http"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/google/uuid"
)

// JobService owns job posts and applications. Listing is public; every write
// is gated on company role.
type JobService interface {
	CreateJob(actorID uint, companyID uuid.UUID, request *models.CreateJobRequest) (*models.JobPost, *apiError.Error)
	GetJob(id uint) (*models.JobPost, *apiError.Error)
	UpdateJob(actorID uint, jobID uint, request *models.UpdateJobRequest) (*models.JobPost, *apiError.Error)
	ListJobs(filter models.JobFilter) (*models.JobListResponse, *apiError.Error)
	Apply(applicantID uint, jobID uint, request *models.ApplyRequest) (*models.JobApplication, *apiError.Error)
	ListApplications(actorID uint, jobID uint) ([]models.JobApplication, *apiError.Error)
	ListMyApplications(userID uint) ([]models.JobApplication, *apiError.Error)
	UpdateApplicationStatus(actorID uint, applicationID uint, status models.ApplicationStatus) *apiError.Error
}

type jobService struct {
	Config      *config.Config
	jobRepo     db.JobRepository
	companyRepo db.CompanyRepository
}

func NewJobService(jobRepo db.JobRepository, companyRepo db.CompanyRepository, conf *config.Config) JobService {
	return &jobService{
		Config:      conf,
		jobRepo:     jobRepo,
		companyRepo: companyRepo,
	}
}

func (s *jobService) CreateJob(actorID uint, companyID uuid.UUID, request *models.CreateJobRequest) (*models.JobPost, *apiError.Error) {
	if apiErr := s.requireManager(companyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	if request.ProductionID != nil {
		production, err := s.companyRepo.FindProductionByID(*request.ProductionID)
		if err != nil {
			return nil, apiError.FromDB(err, "production not found")
		}
		if production.CompanyID != companyID {
			return nil, apiError.New("production belongs to another company", http.StatusBadRequest)
		}
	}

	job := &models.JobPost{
		CompanyID:    companyID,
		ProductionID: request.ProductionID,
		Title:        request.Title,
		Department:   request.Department,
		Location:     request.Location,
		DayRate:      request.DayRate,
		Description:  request.Description,
		Status:       models.JobOpen,
		PostedBy:     actorID,
	}
	if err := s.jobRepo.CreateJobPost(job); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return job, nil
}

func (s *jobService) GetJob(id uint) (*models.JobPost, *apiError.Error) {
	job, err := s.jobRepo.FindJobByID(id)
	if err != nil {
		return nil, apiError.FromDB(err, "job not found")
	}
	return job, nil
}

func (s *jobService) UpdateJob(actorID uint, jobID uint, request *models.UpdateJobRequest) (*models.JobPost, *apiError.Error) {
	job, err := s.jobRepo.FindJobByID(jobID)
	if err != nil {
		return nil, apiError.FromDB(err, "job not found")
	}
	if apiErr := s.requireManager(job.CompanyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	if request.Title != "" {
		job.Title = request.Title
	}
	if request.Department != "" {
		job.Department = request.Department
	}
	if request.Location != "" {
		job.Location = request.Location
	}
	if request.DayRate != "" {
		job.DayRate = request.DayRate
	}
	if request.Description != "" {
		job.Description = request.Description
	}
	if request.Status != "" {
		job.Status = request.Status
	}
	if err := s.jobRepo.UpdateJobPost(job); err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return job, nil
}

// ListJobs runs the public listing. Filters, ordering and the total all run
// against the same SQL query so page boundaries agree with the count.
func (s *jobService) ListJobs(filter models.JobFilter) (*models.JobListResponse, *apiError.Error) {
	filter.Normalize()
	jobs, total, err := s.jobRepo.ListJobs(filter)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return &models.JobListResponse{
		Jobs:    jobs,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}, nil
}

// Apply submits one application per job per user; the unique index turns a
// repeat into a conflict.
func (s *jobService) Apply(applicantID uint, jobID uint, request *models.ApplyRequest) (*models.JobApplication, *apiError.Error) {
	job, err := s.jobRepo.FindJobByID(jobID)
	if err != nil {
		return nil, apiError.FromDB(err, "job not found")
	}
	if job.Status != models.JobOpen {
		return nil, apiError.New("job is closed", http.StatusConflict)
	}
	if member, memberErr := s.companyRepo.FindMember(job.CompanyID, applicantID); memberErr == nil && member != nil {
		return nil, apiError.New("cannot apply to your own company's job", http.StatusBadRequest)
	}
	if err := models.CleanInput(request); err != nil {
		return nil, apiError.ErrBadRequest
	}

	app := &models.JobApplication{
		JobPostID:   jobID,
		ApplicantID: applicantID,
		Note:        request.Note,
		Status:      models.ApplicationSubmitted,
	}
	if err := s.jobRepo.CreateApplication(app); err != nil {
		if apiError.IsDuplicate(err) {
			return nil, apiError.New("application already submitted", http.StatusConflict)
		}
		return nil, apiError.ErrInternalServerError
	}
	return app, nil
}

func (s *jobService) ListApplications(actorID uint, jobID uint) ([]models.JobApplication, *apiError.Error) {
	job, err := s.jobRepo.FindJobByID(jobID)
	if err != nil {
		return nil, apiError.FromDB(err, "job not found")
	}
	if apiErr := s.requireManager(job.CompanyID, actorID); apiErr != nil {
		return nil, apiErr
	}
	apps, err := s.jobRepo.ListApplicationsForJob(jobID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return apps, nil
}

func (s *jobService) ListMyApplications(userID uint) ([]models.JobApplication, *apiError.Error) {
	apps, err := s.jobRepo.ListApplicationsForUser(userID)
	if err != nil {
		return nil, apiError.ErrInternalServerError
	}
	return apps, nil
}

func (s *jobService) UpdateApplicationStatus(actorID uint, applicationID uint, status models.ApplicationStatus) *apiError.Error {
	app, err := s.jobRepo.FindApplicationByID(applicationID)
	if err != nil {
		return apiError.FromDB(err, "application not found")
	}
	job, err := s.jobRepo.FindJobByID(app.JobPostID)
	if err != nil {
		return apiError.FromDB(err, "job not found")
	}
	if apiErr := s.requireManager(job.CompanyID, actorID); apiErr != nil {
		return apiErr
	}
	if err := s.jobRepo.UpdateApplicationStatus(app.ID, status); err != nil {
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *jobService) requireManager(companyID uuid.UUID, userID uint) *apiError.Error {
	member, err := s.companyRepo.FindMember(companyID, userID)
	if err != nil {
		if _, findErr := s.companyRepo.FindCompanyByID(companyID); findErr != nil {
			return apiError.FromDB(findErr, "company not found")
		}
		return apiError.ErrForbidden
	}
	if !member.Role.CanManage() {
		return apiError.ErrForbidden
	}
	return nil
}
