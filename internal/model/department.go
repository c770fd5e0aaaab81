package model

import (
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit. Departments form a tree through ParentID.
type Department struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Department) TableName() string { return "departments" }
