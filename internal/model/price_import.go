package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ImportStatus string

const (
	ImportStatusPending   ImportStatus = "PENDING"
	ImportStatusParsing   ImportStatus = "PARSING"
	ImportStatusReady     ImportStatus = "READY"
	ImportStatusFailed    ImportStatus = "FAILED"
	ImportStatusCommitted ImportStatus = "COMMITTED"
	ImportStatusCancelled ImportStatus = "CANCELLED"
	ImportStatusExpired   ImportStatus = "EXPIRED"
)

// Settled reports whether a poller can stop waiting on a job in this status.
func (s ImportStatus) Settled() bool {
	return s != ImportStatusPending && s != ImportStatusParsing
}

// Final reports whether the job can no longer change.
func (s ImportStatus) Final() bool {
	switch s {
	case ImportStatusCommitted, ImportStatusFailed, ImportStatusCancelled, ImportStatusExpired:
		return true
	}
	return false
}

type ImportFormat string

const (
	ImportFormatPDF  ImportFormat = "PDF"
	ImportFormatXLSX ImportFormat = "XLSX"
)

type PriceImportJob struct {
	ID         uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	FileName   string           `json:"file_name"`
	Format     ImportFormat     `json:"format"`
	Content    []byte           `json:"-"`
	Region     string           `json:"region"`
	ValidFrom  time.Time        `json:"valid_from"`
	Status     ImportStatus     `json:"status"`
	Error      string           `json:"error,omitempty"`
	BulletinID *uuid.UUID       `json:"bulletin_id,omitempty" gorm:"type:uuid"`
	CreatedBy  uuid.UUID        `json:"created_by" gorm:"type:uuid"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Rows       []PriceImportRow `json:"rows,omitempty" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
}

func (PriceImportJob) TableName() string { return "price_import_jobs" }

type RowStatus string

const (
	RowStatusMatched   RowStatus = "MATCHED"
	RowStatusSuggested RowStatus = "SUGGESTED"
	RowStatusUnmatched RowStatus = "UNMATCHED"
	RowStatusInvalid   RowStatus = "INVALID"
)

type Suggestion struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
}

// Suggestions is stored as jsonb.
type Suggestions []Suggestion

func (s Suggestions) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Suggestion(s))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (s *Suggestions) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("suggestions: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]Suggestion)(s))
}

// PriceImportRow is one parsed line of an import. PriceCheck holds an
// otherwise matched row back until a reviewer confirms it; Note says why.
type PriceImportRow struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	JobID            uuid.UUID   `json:"job_id" gorm:"type:uuid"`
	LineNo           int         `json:"line_no"`
	RawText          string      `json:"raw_text"`
	ProductCode      string      `json:"product_code"`
	ProductName      string      `json:"product_name"`
	Unit             string      `json:"unit"`
	UnitPrice        float64     `json:"unit_price"`
	MatchedProductID *uuid.UUID  `json:"matched_product_id,omitempty" gorm:"type:uuid"`
	Suggestions      Suggestions `json:"suggestions" gorm:"type:jsonb"`
	Status           RowStatus   `json:"status"`
	PriceCheck       bool        `json:"price_check"`
	Note             string      `json:"note,omitempty"`
	Overridden       bool        `json:"overridden"`
	Excluded         bool        `json:"excluded"`
}

func (PriceImportRow) TableName() string { return "price_import_rows" }
