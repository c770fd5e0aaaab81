package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusDraft  ContractStatus = "DRAFT"
	ContractStatusActive ContractStatus = "ACTIVE"
	ContractStatusClosed ContractStatus = "CLOSED"
)

// CanTransition reports whether a contract may move from s to next.
// Contracts only move forward: DRAFT -> ACTIVE -> CLOSED.
func (s ContractStatus) CanTransition(next ContractStatus) bool {
	switch s {
	case ContractStatusDraft:
		return next == ContractStatusActive
	case ContractStatusActive:
		return next == ContractStatusClosed
	default:
		return false
	}
}

type Contract struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Number       string         `json:"number"`
	Name         string         `json:"name"`
	CustomerID   uuid.UUID      `json:"customer_id" gorm:"type:uuid"`
	DepartmentID *uuid.UUID     `json:"department_id,omitempty" gorm:"type:uuid"`
	Amount       float64        `json:"amount"`
	StartAt      time.Time      `json:"start_at"`
	EndAt        time.Time      `json:"end_at"`
	Status       ContractStatus `json:"status"`
	Notes        string         `json:"notes"`
	CreatedBy    uuid.UUID      `json:"created_by" gorm:"type:uuid"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Customer     *Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Contract) TableName() string { return "contracts" }
