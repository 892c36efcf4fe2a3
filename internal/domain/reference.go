package domain

import (
	"time"

	"github.com/google/uuid"
)

// CurriculumReference is one item of the national teaching curriculum,
// identified by a dotted code such as "4.15". Reference data is owned by the
// CRUD frontend; the pipeline only reads it.
type CurriculumReference struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Code string `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Text string `gorm:"column:text;type:text;not null" json:"text"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CurriculumReference) TableName() string { return "curriculum_reference" }

// EducationalModule is a named area of early-childhood education
// ("language", "motor skills", ...) that activities get tagged with.
type EducationalModule struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	Name        string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (EducationalModule) TableName() string { return "educational_module" }
