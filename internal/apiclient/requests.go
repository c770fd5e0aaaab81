package apiclient

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// FormatDate renders t the way date fields travel on the wire.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

type DepartmentRequest struct {
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

type CustomerRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Region  string `json:"region"`
}

type ContractRequest struct {
	Number       string     `json:"number"`
	Name         string     `json:"name"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Amount       float64    `json:"amount"`
	StartAt      string     `json:"start_at"`
	EndAt        string     `json:"end_at"`
	Notes        string     `json:"notes"`
	Status       string     `json:"status,omitempty"`
}

type UserRequest struct {
	Username     string     `json:"username"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Position     string     `json:"position"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Permissions  []string   `json:"permissions"`
	Password     string     `json:"password,omitempty"`
}

type ProductRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

type BulletinItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	UnitPrice float64   `json:"unit_price"`
}

type BulletinRequest struct {
	Number    string                `json:"number"`
	Region    string                `json:"region"`
	ValidFrom string                `json:"valid_from"`
	ValidTo   string                `json:"valid_to,omitempty"`
	Items     []BulletinItemRequest `json:"items"`
}

type PurchaseLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
}

type PurchaseRequest struct {
	Number     string                `json:"number"`
	CustomerID uuid.UUID             `json:"customer_id"`
	ContractID *uuid.UUID            `json:"contract_id,omitempty"`
	Region     string                `json:"region"`
	OrderDate  string                `json:"order_date"`
	Lines      []PurchaseLineRequest `json:"lines"`
}

type QuoteRequest struct {
	Region     string      `json:"region"`
	Date       string      `json:"date"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}

// RowPatch changes one import row. Nil fields are left as they are.
type RowPatch struct {
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	UnitPrice *float64   `json:"unit_price,omitempty"`
	Excluded  *bool      `json:"excluded,omitempty"`
}

type UploadRequest struct {
	FileName  string
	Content   []byte
	Region    string
	ValidFrom time.Time
}

// ListParams are the paging and filter query values of list routes.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Extra    map[string]string
}

func (p ListParams) query() map[string]string {
	q := make(map[string]string, len(p.Extra)+4)
	for k, v := range p.Extra {
		q[k] = v
	}
	if p.Page > 0 {
		q["page"] = itoa(p.Page)
	}
	if p.PageSize > 0 {
		q["page_size"] = itoa(p.PageSize)
	}
	if p.Search != "" {
		q["search"] = p.Search
	}
	if p.Status != "" {
		q["status"] = p.Status
	}
	return q
}
