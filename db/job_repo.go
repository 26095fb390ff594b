package db

import (
	"github.com/filmcrewhq/filmcrew/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type JobRepository interface {
	CreateJobPost(job *models.JobPost) error
	FindJobByID(id uint) (*models.JobPost, error)
	UpdateJobPost(job *models.JobPost) error
	ListJobs(filter models.JobFilter) ([]models.JobPost, int64, error)
	CreateApplication(app *models.JobApplication) error
	FindApplicationByID(id uint) (*models.JobApplication, error)
	ListApplicationsForJob(jobID uint) ([]models.JobApplication, error)
	ListApplicationsForUser(userID uint) ([]models.JobApplication, error)
	UpdateApplicationStatus(id uint, status models.ApplicationStatus) error
}

type jobRepo struct {
	DB *gorm.DB
}

func NewJobRepo(db *GormDB) JobRepository {
	return &jobRepo{db.DB}
}

func (r *jobRepo) CreateJobPost(job *models.JobPost) error {
	if err := r.DB.Create(job).Error; err != nil {
		return errors.Wrap(err, "could not create job post")
	}
	return nil
}

func (r *jobRepo) FindJobByID(id uint) (*models.JobPost, error) {
	job := &models.JobPost{}
	err := r.DB.Preload("Company").First(job, id).Error
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *jobRepo) UpdateJobPost(job *models.JobPost) error {
	return r.DB.Save(job).Error
}

// ListJobs applies every filter in SQL and computes the total over the same
// filtered query, so the reported count always matches the page boundaries.
func (r *jobRepo) ListJobs(filter models.JobFilter) ([]models.JobPost, int64, error) {
	filter.Normalize()

	query := r.DB.Model(&models.JobPost{})
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "could not count jobs")
	}

	var jobs []models.JobPost
	err := query.Preload("Company").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "could not list jobs")
	}
	return jobs, total, nil
}

func (r *jobRepo) CreateApplication(app *models.JobApplication) error {
	return r.DB.Create(app).Error
}

func (r *jobRepo) FindApplicationByID(id uint) (*models.JobApplication, error) {
	app := &models.JobApplication{}
	err := r.DB.Preload("Applicant").First(app, id).Error
	if err != nil {
		return nil, err
	}
	return app, nil
}

func (r *jobRepo) ListApplicationsForJob(jobID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.DB.Preload("Applicant").Where("job_post_id = ?", jobID).Order("created_at ASC").Find(&apps).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list applications")
	}
	return apps, nil
}

func (r *jobRepo) ListApplicationsForUser(userID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.DB.Where("applicant_id = ?", userID).Order("created_at DESC").Find(&apps).Error
	if err != nil {
		return nil, errors.Wrap(err, "could not list applications")
	}
	return apps, nil
}

func (r *jobRepo) UpdateApplicationStatus(id uint, status models.ApplicationStatus) error {
	result := r.DB.Model(&models.JobApplication{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return errors.Wrap(result.Error, "could not update application")
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
