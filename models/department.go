package models

import "github.com/google/uuid"

// Department is a crew department used for profile tagging and job filtering.
type Department struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"unique;not null" json:"name"`
}

// DefaultDepartments is seeded at startup.
var DefaultDepartments = []string{
	"Camera",
	"Sound",
	"Lighting",
	"Grip",
	"Art",
	"Costume",
	"Hair & Makeup",
	"Production",
	"Post-Production",
	"Stunts",
	"VFX",
	"Locations",
}
