package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type PurchaseStatus string

const (
	PurchaseStatusDraft     PurchaseStatus = "DRAFT"
	PurchaseStatusSubmitted PurchaseStatus = "SUBMITTED"
	PurchaseStatusApproved  PurchaseStatus = "APPROVED"
	PurchaseStatusRejected  PurchaseStatus = "REJECTED"
	PurchaseStatusCancelled PurchaseStatus = "CANCELLED"
)

type PurchaseOrder struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Number          string         `json:"number"`
	CustomerID      uuid.UUID      `json:"customer_id" gorm:"type:uuid"`
	ContractID      *uuid.UUID     `json:"contract_id,omitempty" gorm:"type:uuid"`
	Region          string         `json:"region"`
	OrderDate       time.Time      `json:"order_date"`
	Status          PurchaseStatus `json:"status"`
	Total           float64        `json:"total"`
	RejectionReason *string        `json:"rejection_reason,omitempty"`
	DecidedByUserID *uuid.UUID     `json:"decided_by_user_id,omitempty" gorm:"type:uuid"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	CreatedByUserID uuid.UUID      `json:"created_by_user_id" gorm:"type:uuid"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Lines           []PurchaseLine `json:"lines,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer        *Customer      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

type PurchaseLine struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `json:"order_id" gorm:"type:uuid"`
	LineNo      int       `json:"line_no"`
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid"`
	ProductCode string    `json:"product_code" gorm:"->"`
	ProductName string    `json:"product_name" gorm:"->"`
	Unit        string    `json:"unit" gorm:"->"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Amount      float64   `json:"amount"`
}

func (PurchaseLine) TableName() string { return "purchase_lines" }

// Recalculate refreshes line amounts and the order total.
func (o *PurchaseOrder) Recalculate() {
	total := 0.0
	for i := range o.Lines {
		o.Lines[i].LineNo = i + 1
		o.Lines[i].Amount = RoundMoney(o.Lines[i].Quantity * o.Lines[i].UnitPrice)
		total += o.Lines[i].Amount
	}
	o.Total = RoundMoney(total)
}

// RoundMoney rounds half away from zero to two decimals.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
