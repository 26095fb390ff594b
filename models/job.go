package models

import (
	"github.com/google/uuid"
)

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

type JobPost struct {
	Model
	CompanyID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"company_id"`
	Company      ProductionCompany `gorm:"foreignKey:CompanyID" json:"company"`
	ProductionID *uint             `json:"production_id"`
	Title        string            `gorm:"not null" json:"title" conform:"trim"`
	Department   string            `gorm:"index" json:"department" conform:"trim"`
	Location     string            `gorm:"index" json:"location" conform:"trim"`
	DayRate      string            `json:"day_rate" conform:"trim"`
	Description  string            `json:"description" conform:"trim"`
	Status       JobStatus         `gorm:"type:varchar(8);default:'open';index" json:"status"`
	PostedBy     uint              `json:"posted_by"`
}

type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationDeclined    ApplicationStatus = "declined"
)

type JobApplication struct {
	Model
	JobPostID   uint              `gorm:"not null;uniqueIndex:idx_job_applications_applicant" json:"job_post_id"`
	ApplicantID uint              `gorm:"not null;uniqueIndex:idx_job_applications_applicant" json:"applicant_id"`
	Applicant   User              `gorm:"foreignKey:ApplicantID" json:"applicant"`
	Note        string            `json:"note" conform:"trim"`
	Status      ApplicationStatus `gorm:"type:varchar(16);default:'submitted'" json:"status"`
}

// JobFilter narrows the public listing. Filtering and totals are both computed
// in SQL so page boundaries always agree with the reported count.
type JobFilter struct {
	Department string
	Location   string
	Status     JobStatus
	CompanyID  *uuid.UUID
	Page       int
	PerPage    int
}

func (f *JobFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
}

type JobListResponse struct {
	Jobs    []JobPost `json:"jobs"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

type CreateJobRequest struct {
	Title        string    `json:"title" binding:"required,min=2" conform:"trim"`
	Department   string    `json:"department" binding:"required" conform:"trim"`
	Location     string    `json:"location" conform:"trim"`
	DayRate      string    `json:"day_rate" conform:"trim"`
	Description  string    `json:"description" conform:"trim"`
	ProductionID *uint     `json:"production_id"`
}

type UpdateJobRequest struct {
	Title       string    `json:"title" conform:"trim"`
	Department  string    `json:"department" conform:"trim"`
	Location    string    `json:"location" conform:"trim"`
	DayRate     string    `json:"day_rate" conform:"trim"`
	Description string    `json:"description" conform:"trim"`
	Status      JobStatus `json:"status" binding:"omitempty,oneof=open closed"`
}

type ApplyRequest struct {
	Note string `json:"note" conform:"trim"`
}

type ApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" binding:"required,oneof=submitted shortlisted declined"`
}
