package models

import (
	"github.com/google/uuid"
)

type ProductionStatus string

const (
	ProductionDevelopment ProductionStatus = "development"
	ProductionPrep        ProductionStatus = "pre-production"
	ProductionShooting    ProductionStatus = "production"
	ProductionPost        ProductionStatus = "post-production"
	ProductionReleased    ProductionStatus = "released"
)

// Production is a film or series a company is running; job posts may be tied
// to one.
type Production struct {
	Model
	CompanyID uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	Title     string           `gorm:"not null" json:"title" conform:"trim"`
	Synopsis  string           `json:"synopsis" conform:"trim"`
	Status    ProductionStatus `gorm:"type:varchar(24);default:'development'" json:"status"`
}

type CreateProductionRequest struct {
	Title    string           `json:"title" binding:"required,min=1" conform:"trim"`
	Synopsis string           `json:"synopsis" conform:"trim"`
	Status   ProductionStatus `json:"status" binding:"omitempty,oneof=development pre-production production post-production released"`
}
